package db

import "gorm.io/gorm"

// Collection 以整集合 JSON 的形式存放单个用户的一类数据
// UserID + Name 采用唯一索引，写入即整体覆盖，最后一次写入获胜
// Name 当前取值为 habits/logs
type Collection struct {
	gorm.Model
	UserID  uint   `gorm:"index;index:idx_collection_scope,unique"`
	Name    string `gorm:"index:idx_collection_scope,unique"`
	Payload string
}

// ReflectionEntry 按 (用户, 日期) 存放一条反思笔记，内容不透明
type ReflectionEntry struct {
	gorm.Model
	UserID  uint   `gorm:"index;index:idx_reflection_scope,unique"`
	Date    string `gorm:"index:idx_reflection_scope,unique"`
	Payload string
}
