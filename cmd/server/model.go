package main

import (
	"time"

	"github.com/nickyhof/StructDB/core"
)

// Task is a tracked unit of work.
type Task struct {
	ID      int64
	Title   string
	Done    bool
	Created time.Time
}

// Note is a comment attached to a task.
type Note struct {
	ID     int64
	TaskId core.Ref[Task] `db:"task_id"`
	Author string
	Body   string
}
