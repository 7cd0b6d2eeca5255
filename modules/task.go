package modules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/GoCodeAlone/capreg"
	"github.com/google/uuid"
)

// PropFabricAPIKey is the task property carrying the crash-reporting key.
const PropFabricAPIKey = "fabricApiKey"

// Notifications posts notifications on the task's channel.
type Notifications struct {
	channel string
}

// NewNotifications creates the notifications module. The manifest id names
// the notification channel.
func NewNotifications(rt *capreg.RuntimeContext, manifest capreg.Manifest) (*Notifications, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	id, err := scopeOf(manifest)
	if err != nil {
		return nil, err
	}
	return &Notifications{channel: id}, nil
}

func (m *Notifications) Name() string { return "Notifications" }

// Channel returns the notification channel id.
func (m *Notifications) Channel() string { return m.channel }

// Present returns the id a presented notification is tracked under.
func (m *Notifications) Present() string {
	return m.channel + "/" + uuid.NewString()
}

// Contacts reads the device address book.
type Contacts struct{ rt *capreg.RuntimeContext }

// NewContacts creates the contacts module.
func NewContacts(rt *capreg.RuntimeContext) (*Contacts, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	return &Contacts{rt: rt}, nil
}

func (m *Contacts) Name() string { return "Contacts" }

// FileSystem gives a task a private directory tree.
type FileSystem struct {
	root string
}

// NewFileSystem creates the filesystem module rooted at
// <data dir>/experience/<escaped manifest id>.
func NewFileSystem(rt *capreg.RuntimeContext, manifest capreg.Manifest) (*FileSystem, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	if rt.Config.DataDir == "" {
		return nil, ErrDataDirRequired
	}
	id, err := scopeOf(manifest)
	if err != nil {
		return nil, err
	}
	return &FileSystem{root: filepath.Join(rt.Config.DataDir, "experience", url.PathEscape(id))}, nil
}

func (m *FileSystem) Name() string { return "FileSystem" }

// Root returns the task's directory.
func (m *FileSystem) Root() string { return m.root }

// Resolve maps a task-relative path into the task's directory.
func (m *FileSystem) Resolve(rel string) (string, error) {
	p := filepath.Join(m.root, rel)
	if p != m.root && !strings.HasPrefix(p, m.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, rel)
	}
	return p, nil
}

// Location reports device location.
type Location struct{ rt *capreg.RuntimeContext }

// NewLocation creates the location module.
func NewLocation(rt *capreg.RuntimeContext) (*Location, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	return &Location{rt: rt}, nil
}

func (m *Location) Name() string { return "Location" }

// Crypto offers digests and random identifiers.
type Crypto struct{}

// NewCrypto creates the crypto module.
func NewCrypto(rt *capreg.RuntimeContext) (*Crypto, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	return &Crypto{}, nil
}

func (m *Crypto) Name() string { return "Crypto" }

// RandomUUID returns a random version 4 UUID.
func (m *Crypto) RandomUUID() string { return uuid.NewString() }

// DigestSHA256 returns the hex SHA-256 digest of data.
func (m *Crypto) DigestSHA256(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// ImagePicker lets the user pick images from the device.
type ImagePicker struct{ rt *capreg.RuntimeContext }

// NewImagePicker creates the image picker module.
func NewImagePicker(rt *capreg.RuntimeContext) (*ImagePicker, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	return &ImagePicker{rt: rt}, nil
}

func (m *ImagePicker) Name() string { return "ImagePicker" }

// Facebook is the social identity integration.
type Facebook struct{ rt *capreg.RuntimeContext }

// NewFacebook creates the social identity module.
func NewFacebook(rt *capreg.RuntimeContext) (*Facebook, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	return &Facebook{rt: rt}, nil
}

func (m *Facebook) Name() string { return "Facebook" }

// Fabric is the crash-reporting integration of a task.
type Fabric struct {
	apiKey string
}

// NewFabric creates the fabric module. The API key property is optional but
// must be a string when set.
func NewFabric(rt *capreg.RuntimeContext, props capreg.TaskProperties) (*Fabric, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	m := &Fabric{}
	if v, ok := props[PropFabricAPIKey]; ok {
		key, isString := v.(string)
		if !isString {
			return nil, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidProperty, PropFabricAPIKey, v)
		}
		m.apiKey = key
	}
	return m, nil
}

func (m *Fabric) Name() string { return "Fabric" }

// Enabled reports whether an API key was supplied.
func (m *Fabric) Enabled() bool { return m.apiKey != "" }

// ImageCropper crops images.
type ImageCropper struct{ rt *capreg.RuntimeContext }

// NewImageCropper creates the image cropping module.
func NewImageCropper(rt *capreg.RuntimeContext) (*ImageCropper, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	return &ImageCropper{rt: rt}, nil
}

func (m *ImageCropper) Name() string { return "ImageCropper" }

// Rect is a crop rectangle in pixels.
type Rect struct {
	X, Y, Width, Height int
}

// Check validates r against an image of the given size.
func (m *ImageCropper) Check(r Rect, imageWidth, imageHeight int) error {
	if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 ||
		r.X+r.Width > imageWidth || r.Y+r.Height > imageHeight {
		return fmt.Errorf("%w: %+v in %dx%d", ErrInvalidCrop, r, imageWidth, imageHeight)
	}
	return nil
}
