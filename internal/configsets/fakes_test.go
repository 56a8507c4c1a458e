package configsets

import (
	"context"
)

type fakeHost struct {
	coordinated bool
}

func (f fakeHost) IsClusterCoordinated() bool { return f.coordinated }

type uploadCall struct {
	name      string
	filePath  string
	overwrite bool
	cleanup   bool
	payload   []byte
}

// fakeOps records every operation call.
type fakeOps struct {
	lists      int
	deletes    []string
	uploads    []uploadCall
	fileUpload []uploadCall
	creates    []*CreateRequest

	err error
}

func (f *fakeOps) calls() int {
	return f.lists + len(f.deletes) + len(f.uploads) + len(f.fileUpload) + len(f.creates)
}

func (f *fakeOps) ListConfigSets(ctx context.Context) (*ListResult, error) {
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	return &ListResult{Header: ResponseHeader{Status: 0, QTime: 3}, ConfigSets: []string{"_default", "foo"}}, nil
}

func (f *fakeOps) DeleteConfigSet(ctx context.Context, name string) (*DeleteResult, error) {
	f.deletes = append(f.deletes, name)
	if f.err != nil {
		return nil, f.err
	}
	return &DeleteResult{Name: name}, nil
}

func (f *fakeOps) UploadConfigSet(ctx context.Context, name string, overwrite, cleanup bool, payload []byte) (*UploadResult, error) {
	f.uploads = append(f.uploads, uploadCall{name: name, overwrite: overwrite, cleanup: cleanup, payload: payload})
	if f.err != nil {
		return nil, f.err
	}
	return &UploadResult{Name: name, Created: true}, nil
}

func (f *fakeOps) UploadConfigSetFile(ctx context.Context, name, filePath string, overwrite, cleanup bool, payload []byte) (*UploadResult, error) {
	f.fileUpload = append(f.fileUpload, uploadCall{name: name, filePath: filePath, overwrite: overwrite, cleanup: cleanup, payload: payload})
	if f.err != nil {
		return nil, f.err
	}
	return &UploadResult{Name: name, Files: []string{filePath}}, nil
}

func (f *fakeOps) CloneExistingConfigSet(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	f.creates = append(f.creates, req)
	if f.err != nil {
		return nil, f.err
	}
	return &CreateResult{Name: req.Name, BaseConfigSet: req.BaseConfigSet}, nil
}
