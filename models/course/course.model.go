package course

import "gorm.io/gorm"

// Course represents a learning course
type Course struct {
	gorm.Model
	Slug    string `json:"slug" gorm:"uniqueIndex"`
	Title   string `json:"title"`
	Code    string `json:"code" gorm:"uniqueIndex;not null"` // prefix of every full certificate code, e.g. "C01"
	Summary string `json:"summary"`
	Program string `json:"program"`

	// LastCertCode is the per-course correlative counter. It is mutated only
	// inside the allocator's locked transaction; never write it elsewhere.
	LastCertCode int `json:"last_cert_code" gorm:"default:0"`

	IsActive  bool `json:"is_active" gorm:"default:true"`
	IsDeleted bool `gorm:"default:false"`
}
