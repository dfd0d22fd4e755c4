package importer

// Device sheet columns. The device sheet is always the first sheet.
const (
	ColAssetID        = "资产编号"
	ColName           = "设备名称"
	ColStation        = "局站"
	ColModel          = "设备型号"
	ColDeviceType     = "设备类型"
	ColLocation       = "机房内空间位置"
	ColPowerRating    = "设备额定容量"
	ColVendor         = "设备生产厂家"
	ColCommissionDate = "设备投产时间"
	ColRemark         = "备注"
	ColParentAssetID  = "上级设备"
	ColParentPort     = "上级端口"
	ColOwnPort        = "本端端口"
	ColCableType      = "线缆类型"
)

// ConnectionSheetName names the optional rich connection sheet.
const ConnectionSheetName = "连接"

// Connection sheet columns.
const (
	ColSourceName          = "A端设备名称"
	ColTargetName          = "B端设备名称"
	ColSourceFuseNumber    = "A端熔丝编号"
	ColSourceFuseSpec      = "A端熔丝规格"
	ColSourceBreakerNumber = "A端空开编号"
	ColSourceBreakerSpec   = "A端空开规格"
	ColTargetFuseNumber    = "B端熔丝编号"
	ColTargetFuseSpec      = "B端熔丝规格"
	ColTargetBreakerNumber = "B端空开编号"
	ColTargetBreakerSpec   = "B端空开规格"
	ColTargetLocation      = "B端设备位置"
	ColHierarchy           = "层级关系"
	ColUpstreamDownstream  = "上下游"
	ColConnectionType      = "连接类型"
	ColCableModel          = "电缆型号"
	ColCableSpec           = "电缆规格"
	ColParallelCount       = "并联根数"
	ColRatedCurrent        = "额定电流"
	ColCableLength         = "电缆长度"
	ColSourcePhoto         = "A端设备照片"
	ColTargetPhoto         = "B端设备照片"
	ColInstallationDate    = "安装日期"
	ColConnectionRemark    = "备注"
)

// RequiredDeviceColumns must be present in the device sheet header.
var RequiredDeviceColumns = []string{ColAssetID, ColName}

// DateColumns hold calendar dates that spreadsheet tools may store as
// serial numbers.
var DateColumns = map[string]struct{}{
	ColCommissionDate:   {},
	ColInstallationDate: {},
}
