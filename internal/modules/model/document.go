package model

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Collection keys as they appear in the persisted document and on the wire.
const (
	KeyUsers          = "users"
	KeyProjects       = "projects"
	KeyStages         = "stages"
	KeyNotifications  = "notifications"
	KeyDelayRecords   = "delayRecords"
	KeyLessonsLearned = "lessonsLearned"
	KeyProjectReports = "projectReports"
)

// CollectionKeys lists every collection the document carries, in persisted order.
var CollectionKeys = []string{
	KeyUsers,
	KeyProjects,
	KeyStages,
	KeyNotifications,
	KeyDelayRecords,
	KeyLessonsLearned,
	KeyProjectReports,
}

var (
	ErrUnknownCollection = errors.New("unknown collection key")
	ErrInvalidPayload    = errors.New("invalid collection payload")
)

// Document is the whole tracker state. The persisted file, the /api/data
// response and the in-memory copy all share this exact shape.
type Document struct {
	Users          []User          `json:"users"`
	Projects       []Project       `json:"projects"`
	Stages         []Stage         `json:"stages"`
	Notifications  []Notification  `json:"notifications"`
	DelayRecords   []DelayRecord   `json:"delayRecords"`
	LessonsLearned []LessonLearned `json:"lessonsLearned"`
	ProjectReports []ProjectReport `json:"projectReports"`
}

// NewDocument returns a document with every collection present and empty,
// so an initial persist writes `[]` rather than `null` for each key.
func NewDocument() *Document {
	return &Document{
		Users:          []User{},
		Projects:       []Project{},
		Stages:         []Stage{},
		Notifications:  []Notification{},
		DelayRecords:   []DelayRecord{},
		LessonsLearned: []LessonLearned{},
		ProjectReports: []ProjectReport{},
	}
}

// ReplaceCollection decodes data (a JSON array) into the collection named by
// key and replaces it whole. Collections are synced whole, not as record
// diffs; concurrent edits to the same collection are last-write-wins.
func (d *Document) ReplaceCollection(key string, data []byte) error {
	decode := func(dst any) error {
		if err := sonic.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("%w: decode %s: %v", ErrInvalidPayload, key, err)
		}
		return nil
	}

	switch key {
	case KeyUsers:
		v := []User{}
		if err := decode(&v); err != nil {
			return err
		}
		d.Users = v
	case KeyProjects:
		v := []Project{}
		if err := decode(&v); err != nil {
			return err
		}
		d.Projects = v
	case KeyStages:
		v := []Stage{}
		if err := decode(&v); err != nil {
			return err
		}
		d.Stages = v
	case KeyNotifications:
		v := []Notification{}
		if err := decode(&v); err != nil {
			return err
		}
		d.Notifications = v
	case KeyDelayRecords:
		v := []DelayRecord{}
		if err := decode(&v); err != nil {
			return err
		}
		d.DelayRecords = v
	case KeyLessonsLearned:
		v := []LessonLearned{}
		if err := decode(&v); err != nil {
			return err
		}
		d.LessonsLearned = v
	case KeyProjectReports:
		v := []ProjectReport{}
		if err := decode(&v); err != nil {
			return err
		}
		d.ProjectReports = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCollection, key)
	}
	return nil
}
