package file

import "time"

const (
	SourceDiscord = "discord"
	SourceManual  = "manual"
)

// File is a row of the files database. FilePath is the local artifact path.
type File struct {
	ID          int64     `gorm:"primaryKey"`
	FileName    string    `gorm:"column:file_name;uniqueIndex;not null"`
	FileType    string    `gorm:"column:file_type"`
	FilePath    string    `gorm:"column:file_path;not null"`
	FileSize    int64     `gorm:"column:file_size"`
	Department  string    `gorm:"column:department;index"`
	Project     string    `gorm:"column:project"`
	UploadedBy  string    `gorm:"column:uploaded_by"`
	UploaderID  string    `gorm:"column:uploader_id"`
	Source      string    `gorm:"column:source;not null"`
	MessageID   string    `gorm:"column:message_id"`
	ChannelID   string    `gorm:"column:channel_id"`
	ChannelName string    `gorm:"column:channel_name"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (File) TableName() string {
	return "files"
}
