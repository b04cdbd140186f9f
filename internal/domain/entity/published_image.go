package entity

// ViewTypePrimary 主图视图类型，检索结果只展示主图
const ViewTypePrimary = "primary"

// PublishedImage 已发布的艺术品图像，对应 published_images 表
// 源数据中的外键列 depictstmsobjectid 在装载时统一重命名为 objectid
type PublishedImage struct {
	UUID         string `json:"uuid" gorm:"column:uuid;type:varchar(64);primaryKey"`
	IIIFURL      string `json:"iiifurl,omitempty" gorm:"column:iiifurl;type:text"`
	IIIFThumbURL string `json:"iiifthumburl,omitempty" gorm:"column:iiifthumburl;type:text"`
	ViewType     string `json:"viewtype,omitempty" gorm:"column:viewtype;type:varchar(32);index"`
	Width        *int   `json:"width,omitempty" gorm:"column:width"`
	Height       *int   `json:"height,omitempty" gorm:"column:height"`
	ObjectID     int64  `json:"objectid" gorm:"column:objectid;index:idx_images_object"`
	Sequence     string `json:"sequence,omitempty" gorm:"column:sequence;type:varchar(16)"`
}

// TableName 指定表名
func (PublishedImage) TableName() string {
	return "published_images"
}

// IsPrimary 判断是否为主图
func (i *PublishedImage) IsPrimary() bool {
	return i.ViewType == ViewTypePrimary
}
