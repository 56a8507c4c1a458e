package controlcli

import (
	"sort"
	"strconv"

	"github.com/mfulz/setgeist/internal/configcli"
	"github.com/mfulz/setgeist/internal/configsets"
	"github.com/mfulz/setgeist/internal/logging"
	"github.com/mfulz/setgeist/protocol"
)

func configsetsRequest(action string) *protocol.Request {
	req := &protocol.Request{Type: protocol.CmdConfigSets}
	req.AddParam(protocol.ParamAction, action)
	return req
}

func exec(cfg *configcli.Config, t Target, req *protocol.Request, out any) error {
	resp, err := Exec(cfg, t, req)
	if err != nil {
		logging.Log.Debugf("[controlcli] %s failed: %v", req.Type, err)
		return err
	}
	if out == nil {
		return nil
	}
	return protocol.DecodeData(resp, out)
}

// Ping queries the daemon status.
func Ping(cfg *configcli.Config, t Target) (*protocol.PingResponse, error) {
	var out protocol.PingResponse
	if err := exec(cfg, t, &protocol.Request{Type: protocol.CmdPing}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConfigSets returns the configset names known to the daemon.
func ListConfigSets(cfg *configcli.Config, t Target) ([]string, error) {
	var out protocol.ListResponse
	if err := exec(cfg, t, configsetsRequest(protocol.ActionList), &out); err != nil {
		return nil, err
	}
	return out.ConfigSets, nil
}

// CreateOptions describes a CREATE request. An empty Base leaves the
// choice to the daemon.
type CreateOptions struct {
	Name       string
	Base       string
	Properties map[string][]string
}

// CreateConfigSet clones a configset on the daemon.
func CreateConfigSet(cfg *configcli.Config, t Target, opts CreateOptions) (*configsets.CreateResult, error) {
	req := configsetsRequest(protocol.ActionCreate)
	req.AddParam(protocol.ParamName, opts.Name)
	if opts.Base != "" {
		req.AddParam(protocol.ParamBaseConfigSet, opts.Base)
	}

	keys := make([]string, 0, len(opts.Properties))
	for k := range opts.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		req.AddParam(protocol.PropertyPrefix+k, opts.Properties[k]...)
	}

	var out configsets.CreateResult
	if err := exec(cfg, t, req, &out); err != nil {
		return nil, err
	}
	logging.Log.Infof("[controlcli] created configset %s", opts.Name)
	return &out, nil
}

// DeleteConfigSet removes a configset on the daemon.
func DeleteConfigSet(cfg *configcli.Config, t Target, name string) error {
	req := configsetsRequest(protocol.ActionDelete)
	req.AddParam(protocol.ParamName, name)
	if err := exec(cfg, t, req, nil); err != nil {
		return err
	}
	logging.Log.Infof("[controlcli] deleted configset %s", name)
	return nil
}

// UploadOptions describes an UPLOAD request. Payload is a zip archive
// unless FilePath is set, in which case it is the raw file content.
type UploadOptions struct {
	Name      string
	FilePath  string
	Overwrite bool
	Cleanup   bool
	Payload   []byte
}

// UploadConfigSet uploads a configset or a single file of it.
func UploadConfigSet(cfg *configcli.Config, t Target, opts UploadOptions) (*configsets.UploadResult, error) {
	req := configsetsRequest(protocol.ActionUpload)
	req.AddParam(protocol.ParamName, opts.Name)
	req.AddParam(protocol.ParamOverwrite, strconv.FormatBool(opts.Overwrite))
	req.AddParam(protocol.ParamCleanup, strconv.FormatBool(opts.Cleanup))
	if opts.FilePath != "" {
		req.AddParam(protocol.ParamFilePath, opts.FilePath)
	}
	req.Payload = opts.Payload

	var out configsets.UploadResult
	if err := exec(cfg, t, req, &out); err != nil {
		return nil, err
	}
	logging.Log.Infof("[controlcli] uploaded configset %s", opts.Name)
	return &out, nil
}
