package entity

// RoleType 人物与艺术品关系的粗分类
type RoleType string

const (
	RoleTypeArtist RoleType = "artist"
	RoleTypeOwner  RoleType = "owner"
	RoleTypeDonor  RoleType = "donor"
)

// ProvenanceRoleTypes 构成来源链的角色类型
var ProvenanceRoleTypes = []RoleType{RoleTypeOwner, RoleTypeDonor}

// ObjectConstituent 艺术品与人物的多对多关联，对应 objects_constituents 表
type ObjectConstituent struct {
	ObjectID      int64    `json:"objectid" gorm:"column:objectid;index:idx_objcon_object"`
	ConstituentID int64    `json:"constituentid" gorm:"column:constituentid;index:idx_objcon_constituent"`
	RoleType      RoleType `json:"roletype" gorm:"column:roletype;type:varchar(32);index"`
	Role          string   `json:"role,omitempty" gorm:"column:role;type:varchar(64)"`
	DisplayOrder  *int     `json:"displayorder,omitempty" gorm:"column:displayorder"`
}

// TableName 指定表名
func (ObjectConstituent) TableName() string {
	return "objects_constituents"
}

// IsArtistRole 判断该关联是否为创作者关系
func (oc *ObjectConstituent) IsArtistRole() bool {
	return oc.RoleType == RoleTypeArtist
}

// IsProvenanceRole 判断该关联是否属于来源链（前藏家或捐赠人）
func (oc *ObjectConstituent) IsProvenanceRole() bool {
	for _, rt := range ProvenanceRoleTypes {
		if oc.RoleType == rt {
			return true
		}
	}
	return false
}
