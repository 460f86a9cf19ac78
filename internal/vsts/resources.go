package vsts

import (
	"strings"
	"time"
)

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	State       string `json:"state,omitempty"`
	Revision    int    `json:"revision,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
}

type Repository struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	URL           string  `json:"url,omitempty"`
	Project       Project `json:"project"`
	DefaultBranch string  `json:"defaultBranch,omitempty"`
	RemoteURL     string  `json:"remoteUrl,omitempty"`
}

// Identity is a user as the service reports it on pull requests and builds.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName,omitempty"`
	URL         string `json:"url,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type PullRequest struct {
	Repository    Repository `json:"repository"`
	PullRequestID int        `json:"pullRequestId"`
	CodeReviewID  int        `json:"codeReviewId,omitempty"`
	Status        string     `json:"status"`
	CreatedBy     Identity   `json:"createdBy"`
	CreationDate  time.Time  `json:"creationDate"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	SourceRefName string     `json:"sourceRefName"`
	TargetRefName string     `json:"targetRefName"`
	MergeStatus   string     `json:"mergeStatus,omitempty"`
	URL           string     `json:"url,omitempty"`
}

// NewPullRequest is the payload for CreatePullRequest. Branch names may be
// given with or without the refs/heads/ prefix.
type NewPullRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	SourceRefName string `json:"sourceRefName"`
	TargetRefName string `json:"targetRefName"`
}

type WorkItemRef struct {
	ID  int    `json:"id"`
	URL string `json:"url,omitempty"`
}

// WorkItemFields holds the fields requested by WorkItemDetails.
type WorkItemFields struct {
	ID           int       `json:"System.Id"`
	WorkItemType string    `json:"System.WorkItemType"`
	State        string    `json:"System.State"`
	AssignedTo   string    `json:"System.AssignedTo,omitempty"`
	Title        string    `json:"System.Title"`
	Description  string    `json:"System.Description,omitempty"`
	CreatedDate  time.Time `json:"System.CreatedDate"`
	Tags         string    `json:"System.Tags,omitempty"`
}

// AssignedToName strips the mail address from "Jane Doe <jane@example.com>".
func (f WorkItemFields) AssignedToName() string {
	name, _, _ := strings.Cut(f.AssignedTo, "<")

	return strings.TrimSpace(name)
}

// NewWorkItem is the service's answer to CreateWorkItem.
type NewWorkItem struct {
	ID     int            `json:"id"`
	Rev    int            `json:"rev"`
	Fields WorkItemFields `json:"fields"`
	URL    string         `json:"url,omitempty"`
}

// PatchOperation is one JSON patch operation of a work item document.
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// AddField returns an "add" operation setting the named field.
func AddField(field string, value any) PatchOperation {
	return PatchOperation{Op: "add", Path: "/fields/" + field, Value: value}
}

type BuildDefinitionRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Path string `json:"path,omitempty"`
	Type string `json:"type,omitempty"`
}

type Build struct {
	ID           int                `json:"id"`
	BuildNumber  string             `json:"buildNumber"`
	Status       string             `json:"status"`
	Result       string             `json:"result,omitempty"`
	QueueTime    time.Time          `json:"queueTime"`
	StartTime    time.Time          `json:"startTime"`
	FinishTime   time.Time          `json:"finishTime"`
	URL          string             `json:"url,omitempty"`
	Definition   BuildDefinitionRef `json:"definition"`
	Project      Project            `json:"project"`
	SourceBranch string             `json:"sourceBranch,omitempty"`
	RequestedFor Identity           `json:"requestedFor"`
}

// LogRef points at the log of a timeline record.
type LogRef struct {
	ID   int    `json:"id"`
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
}

// TimelineRecord is one step of a build.
type TimelineRecord struct {
	ID         string    `json:"id"`
	ParentID   string    `json:"parentId,omitempty"`
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Order      int       `json:"order"`
	State      string    `json:"state"`
	Result     string    `json:"result,omitempty"`
	StartTime  time.Time `json:"startTime"`
	FinishTime time.Time `json:"finishTime"`
	Log        *LogRef   `json:"log,omitempty"`
}

// listResponse is the envelope of every collection endpoint.
type listResponse[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}
