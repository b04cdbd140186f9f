package entity

// TextEntry 艺术品的自由文本条目，对应 objects_text_entries 表
// 包括展览历史、文献记录等，仅由详情查询使用
type TextEntry struct {
	ObjectID int64  `json:"objectid" gorm:"column:objectid;index:idx_text_object"`
	TextType string `json:"texttype,omitempty" gorm:"column:texttype;type:varchar(64)"`
	Text     string `json:"text,omitempty" gorm:"column:text;type:text"`
	Year     string `json:"year,omitempty" gorm:"column:year;type:varchar(16)"`
}

// TableName 指定表名
func (TextEntry) TableName() string {
	return "objects_text_entries"
}
