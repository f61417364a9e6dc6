// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"context"
	"log/slog"

	"flatpak-bundler/internal/flatpak"
	"flatpak-bundler/pkg/manifest"

	"golang.org/x/sync/errgroup"
)

const (
	// RefRuntime is the platform the application runs against.
	RefRuntime RefKind = iota
	// RefSDK is the platform the application is built with.
	RefSDK
	// RefBase is the base application the build is layered on.
	RefBase
)

type (
	// RefKind identifies one of the three auto-installable dependencies.
	RefKind int

	// refRequest is everything the Reference Installer needs for one dependency.
	refRequest struct {
		Kind       RefKind
		ID         string
		Version    string
		Descriptor string
		Auto       bool
	}
)

// String returns the manifest spelling of the kind.
func (k RefKind) String() string {
	switch k {
	case RefRuntime:
		return "runtime"
	case RefSDK:
		return "sdk"
	case RefBase:
		return "base"
	default:
		return "unknown"
	}
}

// refRequests lists the dependencies of m in runtime, sdk, base order.
// The SDK is pinned to the runtime version, as flatpak build-init does.
// A dependency without an id is never auto-installed, whatever its descriptor says.
func refRequests(m *manifest.Manifest, o Options) []refRequest {
	reqs := []refRequest{
		{Kind: RefRuntime, ID: m.Runtime, Version: m.RuntimeVersion, Descriptor: m.RuntimeFlatpakref, Auto: isTrue(o.AutoInstallRuntime)},
		{Kind: RefSDK, ID: m.SDK, Version: m.RuntimeVersion, Descriptor: m.SDKFlatpakref, Auto: isTrue(o.AutoInstallSDK)},
		{Kind: RefBase, ID: m.Base, Version: m.BaseVersion, Descriptor: m.BaseFlatpakref, Auto: isTrue(o.AutoInstallBase)},
	}
	for i := range reqs {
		if reqs[i].ID == "" {
			reqs[i].Auto = false
		}
	}
	return reqs
}

// ensureRef installs or updates one dependency.
//
// Both scopes are probed concurrently; a failing probe means "not installed". When
// neither scope has the ref it is installed per-user from the descriptor, otherwise it
// is updated where it was found (user wins when both have it).
func (b *Bundler) ensureRef(ctx context.Context, req refRequest, arch string) error {
	if !req.Auto {
		b.logger.Debug("skipping dependency", "kind", req.Kind, "ref", req.ID, "auto_install", req.Auto)
		return nil
	}
	ref := flatpak.RefName(req.ID, req.Version)

	scopes := []flatpak.Scope{flatpak.ScopeUser, flatpak.ScopeSystem}
	installed := make([]bool, len(scopes))
	g, gctx := errgroup.WithContext(ctx)
	for i, scope := range scopes {
		g.Go(func() error {
			ok, err := b.tool.Info(gctx, scope, arch, ref)
			installed[i] = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, scope := range scopes {
		if installed[i] {
			b.logger.Info("updating dependency", "kind", req.Kind, "ref", ref, "scope", scope)
			return b.tool.Update(ctx, scope, arch, ref)
		}
	}

	if req.Descriptor == "" {
		return &DependencyError{Kind: req.Kind, Ref: ref}
	}
	b.logger.Info("installing dependency", "kind", req.Kind, "ref", ref, "from", req.Descriptor)
	return b.tool.Install(ctx, flatpak.ScopeUser, arch, req.Descriptor)
}

// LogValue implements slog.LogValuer.
func (k RefKind) LogValue() slog.Value { return slog.StringValue(k.String()) }
