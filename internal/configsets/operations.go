package configsets

import "context"

// Host is the node the handler runs on.
type Host interface {
	// IsClusterCoordinated reports whether configset management is backed
	// by a coordination service.
	IsClusterCoordinated() bool
}

// Operations performs configset changes against the backing store.
// Implementations own any locking between concurrent requests.
type Operations interface {
	ListConfigSets(ctx context.Context) (*ListResult, error)
	DeleteConfigSet(ctx context.Context, name string) (*DeleteResult, error)
	UploadConfigSet(ctx context.Context, name string, overwrite, cleanup bool, payload []byte) (*UploadResult, error)
	UploadConfigSetFile(ctx context.Context, name, filePath string, overwrite, cleanup bool, payload []byte) (*UploadResult, error)
	CloneExistingConfigSet(ctx context.Context, req *CreateRequest) (*CreateResult, error)
}

// CreateRequest describes a configset cloned from an existing base.
type CreateRequest struct {
	Name          string         `json:"name"`
	BaseConfigSet string         `json:"baseConfigSet"`
	Properties    map[string]any `json:"properties,omitempty"` // string or []string values
}

// UploadRequest describes a whole-configset or single-file upload.
type UploadRequest struct {
	Name      string
	Overwrite bool
	Cleanup   bool
	FilePath  string // empty selects a whole-configset upload
	Payload   []byte
}

// SingleFile reports whether the upload targets one file.
func (r *UploadRequest) SingleFile() bool {
	return r.FilePath != ""
}

// DeleteRequest names the configset to delete.
type DeleteRequest struct {
	Name string
}

// ResponseHeader is the per-operation status block stripped by Envelope.Squash.
type ResponseHeader struct {
	Status int   `json:"status"`
	QTime  int64 `json:"QTime"`
}

// ListResult lists the known configset names.
type ListResult struct {
	Header     ResponseHeader `json:"responseHeader"`
	ConfigSets []string       `json:"configSets"`
}

// CreateResult describes a cloned configset.
type CreateResult struct {
	Header        ResponseHeader `json:"responseHeader"`
	Name          string         `json:"name"`
	BaseConfigSet string         `json:"baseConfigSet"`
	Files         int            `json:"files"`
}

// DeleteResult describes a deleted configset.
type DeleteResult struct {
	Header ResponseHeader `json:"responseHeader"`
	Name   string         `json:"name"`
}

// UploadResult describes the outcome of an upload.
type UploadResult struct {
	Header  ResponseHeader `json:"responseHeader"`
	Name    string         `json:"name"`
	Files   []string       `json:"files,omitempty"`
	Removed []string       `json:"removed,omitempty"`
	Created bool           `json:"created"`
}
