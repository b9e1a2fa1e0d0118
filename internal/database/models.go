package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;size:64"`
	PasswordHash string `gorm:"size:255"`
	Role         string `gorm:"size:32;default:user"`
}

// 文档解析状态流转：uploaded → processing → parsed / failed。
const (
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusProcessing = "processing"
	DocumentStatusParsed     = "parsed"
	DocumentStatusFailed     = "failed"
)

// ResumeDocument 表示一份用户简历：上传的原始文件（对象存储键）
// 加上解析/用户编辑后的结构化内容（JSONB）。
type ResumeDocument struct {
	gorm.Model
	Title       string         `gorm:"size:255"`
	Content     datatypes.JSON `gorm:"type:jsonb"`
	UserID      uint           `gorm:"index"`
	User        User           `gorm:"constraint:OnDelete:CASCADE"`
	ObjectKey   string         `gorm:"size:512"`
	ContentHash string         `gorm:"size:64;index"`
	MimeType    string         `gorm:"size:128"`
	Status      string         `gorm:"size:32"`
	ParseError  string         `gorm:"size:512"`
}

// CoverLetter 表示一封生成的求职信。
type CoverLetter struct {
	gorm.Model
	UserID   uint   `gorm:"index"`
	User     User   `gorm:"constraint:OnDelete:CASCADE"`
	JobTitle string `gorm:"size:255"`
	Company  string `gorm:"size:255"`
	Content  string `gorm:"type:text"`
}

// Agreement 记录用户对某份协议文本的确认。
type Agreement struct {
	gorm.Model
	UserID       uint   `gorm:"index"`
	User         User   `gorm:"constraint:OnDelete:CASCADE"`
	DocumentType string `gorm:"size:64"`
	Version      string `gorm:"size:32"`
	AcceptedAt   time.Time
}
