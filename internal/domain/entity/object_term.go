package entity

// ObjectTerm 艺术品标签，对应 objects_terms 表
// 一件艺术品可以有零个或多个标签（风格、主题、流派、地点等）
type ObjectTerm struct {
	TermID   *int64 `json:"termid,omitempty" gorm:"column:termid"`
	ObjectID int64  `json:"objectid" gorm:"column:objectid;index:idx_terms_object"`
	TermType string `json:"termtype,omitempty" gorm:"column:termtype;type:varchar(64)"`
	Term     string `json:"term,omitempty" gorm:"column:term;type:text;index"`
}

// TableName 指定表名
func (ObjectTerm) TableName() string {
	return "objects_terms"
}
