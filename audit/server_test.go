package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/capreg"
	"github.com/GoCodeAlone/capreg/catalog"
)

var errNoChannel = errors.New("notification channel unavailable")

func newTestServer(t *testing.T, opts ...capreg.Option) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg, err := catalog.NewRegistry(logger, opts...)
	require.NoError(t, err)

	cfg := &capreg.RuntimeConfig{AppID: "audit-test", DataDir: t.TempDir(), Locale: "en-US", Platform: "go"}
	srv := httptest.NewServer(NewServer(reg, cfg, logger).Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestDescriptors(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/descriptors")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []DescriptorView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 19)

	byKind := make(map[capreg.ModuleKind]DescriptorView, len(views))
	for _, v := range views {
		byKind[v.Kind] = v
	}
	assert.Equal(t, DescriptorView{Kind: capreg.KindURLHandler, Doc: byKind[capreg.KindURLHandler].Doc, Kernel: true, Verified: true, Unverified: true}, byKind[capreg.KindURLHandler])
	assert.False(t, byKind[capreg.KindKernel].Kernel)
	assert.True(t, byKind[capreg.KindStorage].Verified)
	assert.False(t, byKind[capreg.KindStorage].Unverified)
	assert.True(t, byKind[capreg.KindUnsignedStorage].Unverified)
	assert.False(t, byKind[capreg.KindImageCropper].Kernel)
}

func TestPlan(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		query  string
		status int
		count  int
	}{
		{"mode=kernel", http.StatusOK, 7},
		{"mode=task&verified=true", http.StatusOK, 17},
		{"mode=task&verified=false", http.StatusOK, 9},
		{"mode=task", http.StatusOK, 9},
		{"mode=root", http.StatusBadRequest, 0},
		{"mode=task&verified=maybe", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/plan?" + tt.query)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tt.status, resp.StatusCode)
			if tt.status != http.StatusOK {
				return
			}
			var kinds []capreg.ModuleKind
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&kinds))
			assert.Len(t, kinds, tt.count)
		})
	}
}

func postAssemble(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/assemble", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAssemble(t *testing.T) {
	srv := newTestServer(t)

	resp := postAssemble(t, srv, `{"mode":"task","manifest":{"id":"@team/app","isVerified":true},"properties":{}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view AssemblyView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "task", view.Mode)
	assert.True(t, view.Verified)
	assert.Len(t, view.NativeModules, 17)
	assert.Zero(t, view.ScriptModules)
	assert.Zero(t, view.ViewManagers)
	assert.Equal(t, ModuleView{Kind: capreg.KindURLHandler, Name: "URLHandler"}, view.NativeModules[0])
}

func TestAssemble_Kernel(t *testing.T) {
	srv := newTestServer(t)

	resp := postAssemble(t, srv, `{"mode":"kernel"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view AssemblyView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Len(t, view.NativeModules, 7)

	resp = postAssemble(t, srv, `{"mode":"kernel","manifest":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAssemble_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{`{`, `{"mode":"other"}`, `[]`} {
		resp := postAssemble(t, srv, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestAssemble_ConstructionFailure(t *testing.T) {
	srv := newTestServer(t, capreg.WithFactory(capreg.KindNotifications, func(capreg.FactoryArgs) (capreg.Module, error) {
		return nil, errNoChannel
	}))

	resp := postAssemble(t, srv, `{"mode":"task","manifest":{"isVerified":true}}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var ev errorView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ev))
	assert.Equal(t, capreg.KindNotifications, ev.Kind)
	assert.Contains(t, ev.Error, errNoChannel.Error())
}

func TestView_TaskContextForms(t *testing.T) {
	reg, err := catalog.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	tc := capreg.NewTaskContext(nil, capreg.Manifest{capreg.ManifestVerifiedKey: true})
	set, err := reg.Assemble(nil, &tc)
	require.NoError(t, err)

	byValue := View(tc, set)
	byPointer := View(&tc, set)
	assert.True(t, byValue.Verified)
	assert.True(t, byPointer.Verified)
	assert.Equal(t, "task", byPointer.Mode)
	assert.Len(t, byPointer.NativeModules, 17)

	kernel := View(capreg.KernelContext{}, set)
	assert.False(t, kernel.Verified)
}
