// Package protocol defines the message structures and types used for communication
// between setgeistctl and the setgeistd daemon. It can be used externally to build
// additional tooling or integrations.
package protocol

// Command types for Request.Type
const (
	CmdConfigSets = "configsets"
	CmdPing       = "system.ping"
)

// Response status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Parameter names understood by the configsets command.
const (
	ParamAction        = "action"
	ParamName          = "name"
	ParamBaseConfigSet = "baseConfigSet"
	ParamOverwrite     = "overwrite"
	ParamCleanup       = "cleanup"
	ParamFilePath      = "filePath"

	// PropertyPrefix marks parameters that become configset properties.
	PropertyPrefix = "configSetProp."
)

// Action tokens for ParamAction.
const (
	ActionList   = "LIST"
	ActionCreate = "CREATE"
	ActionDelete = "DELETE"
	ActionUpload = "UPLOAD"
)

// Request represents a message sent from a client to the daemon.
type Request struct {
	Type    string      `json:"type"`              // e.g. "configsets", "system.ping"
	Auth    *Auth       `json:"auth,omitempty"`    // Optional auth block
	Params  []Param     `json:"params,omitempty"`  // Flat request parameters, in order
	Payload []byte      `json:"payload,omitempty"` // Optional binary body (base64 on the wire)
	Data    interface{} `json:"data,omitempty"`    // Optional structured payload
}

// Param is one named request parameter carrying one or more values.
type Param struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// AddParam appends values to the parameter name, adding it when absent.
func (r *Request) AddParam(name string, values ...string) {
	for i := range r.Params {
		if r.Params[i].Name == name {
			r.Params[i].Values = append(r.Params[i].Values, values...)
			return
		}
	}
	r.Params = append(r.Params, Param{Name: name, Values: values})
}

// Response represents a message sent from the daemon to a client.
type Response struct {
	Status  string      `json:"status"`            // "ok" or "error"
	Code    int         `json:"code,omitempty"`    // HTTP-class status code on error
	Data    interface{} `json:"data,omitempty"`    // Optional result
	Error   string      `json:"error,omitempty"`   // Optional error message
	NoCache bool        `json:"nocache,omitempty"` // Result must not be cached by clients

	RequestID string `json:"request_id,omitempty"` // Server-assigned id for log correlation
}

// Auth holds authentication information for a client.
type Auth struct {
	User  string `json:"user"`
	Token string `json:"token"`
}

// ErrorResponse builds an error response with the given code.
func ErrorResponse(code int, msg string) *Response {
	return &Response{Status: StatusError, Code: code, Error: msg}
}

// --- Payload Types ---

// PingResponse is returned for CmdPing.
type PingResponse struct {
	Service     string `json:"service"`
	Node        string `json:"node,omitempty"`
	Description string `json:"description"`
	Coordinated bool   `json:"coordinated"`
}

// ListResponse is the decoded data of a LIST action.
type ListResponse struct {
	ConfigSets []string `json:"configSets"`
}
