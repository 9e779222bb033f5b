package qrlogin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/domain/shared"
)

// Display names as stored in the configuration menu
var (
	defaultPlatformKinds = map[string]qrlogin.DriverKind{
		"抖音":  qrlogin.KindDoudian,
		"小红书": qrlogin.KindXiaohongshu,
	}
	defaultProductKinds = map[string]qrlogin.DriverKind{
		"抖店": qrlogin.KindDoudian,
		"千帆": qrlogin.KindQianfan,
	}
)

// Factory resolves platform and product names to registered drivers.
// It is immutable after construction.
type Factory struct {
	menus         qrlogin.ConfigMenuReader
	drivers       map[qrlogin.DriverKind]qrlogin.Driver
	platformKinds map[string]qrlogin.DriverKind
	productKinds  map[string]qrlogin.DriverKind
}

// NewFactory creates a factory over the given drivers
func NewFactory(menus qrlogin.ConfigMenuReader, drivers ...qrlogin.Driver) *Factory {
	f := &Factory{
		menus:         menus,
		drivers:       make(map[qrlogin.DriverKind]qrlogin.Driver, len(drivers)),
		platformKinds: make(map[string]qrlogin.DriverKind, len(defaultPlatformKinds)),
		productKinds:  make(map[string]qrlogin.DriverKind, len(defaultProductKinds)),
	}
	for _, d := range drivers {
		if d != nil {
			f.drivers[d.Kind()] = d
		}
	}
	for name, kind := range defaultPlatformKinds {
		f.platformKinds[normalizeName(name)] = kind
	}
	for name, kind := range defaultProductKinds {
		f.productKinds[normalizeName(name)] = kind
	}
	return f
}

// Resolve returns the driver for a platform/product pair. A product match
// takes priority over a platform match.
func (f *Factory) Resolve(platformName, productName string) (qrlogin.Driver, error) {
	kind, ok := f.productKinds[normalizeName(productName)]
	if !ok {
		kind, ok = f.platformKinds[normalizeName(platformName)]
	}
	if !ok {
		return nil, fmt.Errorf("%w: platform=%q product=%q", qrlogin.ErrUnsupportedPlatform, platformName, productName)
	}
	d, ok := f.drivers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no driver registered for %s", qrlogin.ErrUnsupportedPlatform, kind)
	}
	return d, nil
}

// ResolveByIDs looks up the platform and product names by menu id and
// resolves them
func (f *Factory) ResolveByIDs(ctx context.Context, platformID, productID int64) (qrlogin.Driver, error) {
	platformName, err := f.menuName(ctx, "platform", platformID)
	if err != nil {
		return nil, err
	}
	productName, err := f.menuName(ctx, "product", productID)
	if err != nil {
		return nil, err
	}
	return f.Resolve(platformName, productName)
}

// Driver returns the registered driver of the given kind
func (f *Factory) Driver(kind qrlogin.DriverKind) (qrlogin.Driver, bool) {
	d, ok := f.drivers[kind]
	return d, ok
}

func (f *Factory) menuName(ctx context.Context, label string, id int64) (string, error) {
	if id <= 0 || f.menus == nil {
		return "", fmt.Errorf("%w: %s id %d", qrlogin.ErrConfigNotFound, label, id)
	}
	name, err := f.menus.GetMenuName(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", fmt.Errorf("%w: %s id %d", qrlogin.ErrConfigNotFound, label, id)
		}
		return "", err
	}
	return name, nil
}

func normalizeName(name string) string {
	return strings.TrimSpace(norm.NFKC.String(name))
}

var _ qrlogin.DriverResolver = (*Factory)(nil)
