// Package entity 定义领域实体
package entity

// ArtObject 馆藏艺术品实体，对应开放数据中的 objects 表
type ArtObject struct {
	ObjectID       int64  `json:"objectid" gorm:"column:objectid;primaryKey"`
	Accessioned    bool   `json:"accessioned" gorm:"column:accessioned;index"`
	AccessionNum   string `json:"accessionnum,omitempty" gorm:"column:accessionnum;type:varchar(32)"`
	Title          string `json:"title,omitempty" gorm:"column:title;type:text;index"`
	DisplayDate    string `json:"displaydate,omitempty" gorm:"column:displaydate;type:varchar(255)"`
	BeginYear      *int   `json:"beginyear,omitempty" gorm:"column:beginyear;index"`
	EndYear        *int   `json:"endyear,omitempty" gorm:"column:endyear"`
	Medium         string `json:"medium,omitempty" gorm:"column:medium;type:text"`
	Dimensions     string `json:"dimensions,omitempty" gorm:"column:dimensions;type:text"`
	Classification string `json:"classification,omitempty" gorm:"column:classification;type:varchar(64);index"`
	Attribution    string `json:"attribution,omitempty" gorm:"column:attribution;type:text"`
	CreditLine     string `json:"creditline,omitempty" gorm:"column:creditline;type:text"`
	LocationID     *int64 `json:"locationid,omitempty" gorm:"column:locationid"`
}

// TableName 指定表名
func (ArtObject) TableName() string {
	return "objects"
}

// IsSearchable 判断艺术品是否可进入检索结果
// 只有已正式入藏的艺术品才对外可见
func (o *ArtObject) IsSearchable() bool {
	return o.Accessioned
}

// CreationSpan 返回创作起止年份，未知时返回 (0, 0, false)
func (o *ArtObject) CreationSpan() (begin, end int, ok bool) {
	if o.BeginYear == nil {
		return 0, 0, false
	}
	begin = *o.BeginYear
	end = begin
	if o.EndYear != nil {
		end = *o.EndYear
	}
	return begin, end, true
}
