package entity

// Location 展陈位置，对应 locations 表
type Location struct {
	LocationID   int64  `json:"locationid" gorm:"column:locationid;primaryKey"`
	Site         string `json:"site,omitempty" gorm:"column:site;type:varchar(128)"`
	Room         string `json:"room,omitempty" gorm:"column:room;type:varchar(128)"`
	Description  string `json:"description,omitempty" gorm:"column:description;type:text"`
	UnitPosition string `json:"unitposition,omitempty" gorm:"column:unitposition;type:varchar(64)"`
}

// TableName 指定表名
func (Location) TableName() string {
	return "locations"
}
