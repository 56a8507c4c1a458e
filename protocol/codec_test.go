package protocol

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestRoundTripKeepsPayloadAndParams(t *testing.T) {
	r := require.New(t)

	var buf bytes.Buffer
	req := &Request{
		Type: CmdConfigSets,
		Auth: &Auth{User: "admin", Token: "secret"},
		Params: []Param{
			{Name: ParamAction, Values: []string{ActionUpload}},
			{Name: ParamName, Values: []string{"foo"}},
		},
		Payload: []byte{0x50, 0x4b, 0x00, 0xff},
	}
	r.NoError(WriteRequest(&buf, req))
	r.Equal(byte('\n'), buf.Bytes()[buf.Len()-1])

	got, err := ReadRequest(bufio.NewReader(&buf))
	r.NoError(err)
	r.Equal(req.Type, got.Type)
	r.Equal(req.Auth, got.Auth)
	r.Equal(req.Params, got.Params)
	r.Equal(req.Payload, got.Payload)
}

func TestReadResponseDecodeError(t *testing.T) {
	_, err := ReadResponse(bufio.NewReader(bytes.NewBufferString("not json\n")))
	require.ErrorContains(t, err, "decode error")
}

func TestReadRequestWithoutNewline(t *testing.T) {
	_, err := ReadRequest(bufio.NewReader(bytes.NewBufferString(`{"type":"x"}`)))
	require.ErrorContains(t, err, "read error")
}

func TestDecodeData(t *testing.T) {
	r := require.New(t)

	resp := &Response{Status: StatusOK, Data: map[string]any{"configSets": []any{"_default", "foo"}}}
	var list ListResponse
	r.NoError(DecodeData(resp, &list))
	r.Equal([]string{"_default", "foo"}, list.ConfigSets)
}

func TestAddParamMergesValues(t *testing.T) {
	r := require.New(t)

	var req Request
	req.AddParam(ParamAction, ActionCreate)
	req.AddParam(PropertyPrefix+"bar", "a")
	req.AddParam(PropertyPrefix+"bar", "b")

	r.Equal([]Param{
		{Name: ParamAction, Values: []string{ActionCreate}},
		{Name: "configSetProp.bar", Values: []string{"a", "b"}},
	}, req.Params)
}
