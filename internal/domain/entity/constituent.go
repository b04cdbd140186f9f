package entity

// Constituent 相关人物/机构实体，对应 constituents 表
// 既包括艺术家，也包括捐赠人、前藏家等来源链角色
type Constituent struct {
	ConstituentID        int64  `json:"constituentid" gorm:"column:constituentid;primaryKey"`
	PreferredDisplayName string `json:"preferreddisplayname,omitempty" gorm:"column:preferreddisplayname;type:text;index"`
	DisplayDate          string `json:"displaydate,omitempty" gorm:"column:displaydate;type:varchar(255)"`
	Nationality          string `json:"nationality,omitempty" gorm:"column:nationality;type:varchar(128)"`
	BeginYear            *int   `json:"beginyear,omitempty" gorm:"column:beginyear"`
	EndYear              *int   `json:"endyear,omitempty" gorm:"column:endyear"`
	ArtistOfNGAObject    *int   `json:"artistofngaobject,omitempty" gorm:"column:artistofngaobject"`
}

// TableName 指定表名
func (Constituent) TableName() string {
	return "constituents"
}

// IsArtist 判断该人物是否为馆藏作品的艺术家
func (c *Constituent) IsArtist() bool {
	return c.ArtistOfNGAObject != nil && *c.ArtistOfNGAObject == 1
}
