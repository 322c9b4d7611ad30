// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package oci

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/prisma-rig/prisma-control/pkg/defaults"
	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

// ArtifactType is the media type of pushed run artifacts.
const ArtifactType = "application/vnd.prisma.run.v1"

// PushOptions configures a push.
type PushOptions struct {
	// SourceDir is the directory to pack.
	SourceDir string
	// LayerName roots the layer's tar entries. Defaults to the base name of
	// SourceDir.
	LayerName string
	// Registry is the registry host, e.g. "ghcr.io" or "localhost:5000".
	Registry string
	// Repository is the repository path, e.g. "lab/prisma-runs".
	Repository string
	Tag        string
	// PlainHTTP uses HTTP instead of HTTPS.
	PlainHTTP bool
	// InsecureTLS skips certificate verification.
	InsecureTLS bool
	// Annotations are added to the manifest.
	Annotations map[string]string
}

// PushResult describes a pushed artifact.
type PushResult struct {
	Digest    string
	Reference string
}

func (o PushOptions) validate() (string, error) {
	if o.Tag == "" {
		return "", rigerrors.New(rigerrors.ErrCodeInvalidRequest, "tag is required to push OCI artifact")
	}
	if o.SourceDir == "" {
		return "", rigerrors.New(rigerrors.ErrCodeInvalidRequest, "source directory is required")
	}
	registryHost := stripProtocol(o.Registry)
	if err := ValidateRegistryReference(registryHost, o.Repository); err != nil {
		return "", err
	}
	ref := fmt.Sprintf("%s/%s:%s", registryHost, o.Repository, o.Tag)
	if _, err := reference.ParseNormalizedNamed(ref); err != nil {
		return "", rigerrors.WrapWithContext(rigerrors.ErrCodeInvalidRequest,
			"invalid image reference", err, map[string]any{"reference": ref})
	}
	return ref, nil
}

// Push packs opts.SourceDir and pushes it to the remote registry.
func Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	ref, err := opts.validate()
	if err != nil {
		return nil, err
	}

	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", stripProtocol(opts.Registry), opts.Repository))
	if err != nil {
		return nil, rigerrors.Wrap(rigerrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	ctx, cancel := context.WithTimeout(ctx, defaults.OCIPushTimeout)
	defer cancel()

	return pushTo(ctx, opts, ref, repo)
}

// pushTo packs opts.SourceDir into a file store and copies it to dst.
func pushTo(ctx context.Context, opts PushOptions, ref string, dst oras.Target) (*PushResult, error) {
	absDir, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return nil, rigerrors.Wrap(rigerrors.ErrCodeInternal, "failed to resolve source directory", err)
	}
	name := opts.LayerName
	if name == "" {
		name = filepath.Base(absDir)
	}

	fs, err := file.New(filepath.Dir(absDir))
	if err != nil {
		return nil, rigerrors.Wrap(rigerrors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()
	fs.TarReproducible = true

	layer, err := fs.Add(ctx, name, ociv1.MediaTypeImageLayerGzip, absDir)
	if err != nil {
		return nil, rigerrors.Wrap(rigerrors.ErrCodeInternal, "failed to add source directory to store", err)
	}

	manifest, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType,
		oras.PackManifestOptions{
			Layers:              []ociv1.Descriptor{layer},
			ManifestAnnotations: opts.Annotations,
		})
	if err != nil {
		return nil, rigerrors.Wrap(rigerrors.ErrCodeInternal, "failed to pack manifest", err)
	}
	if err := fs.Tag(ctx, manifest, opts.Tag); err != nil {
		return nil, rigerrors.Wrap(rigerrors.ErrCodeInternal, "failed to tag manifest in local store", err)
	}

	desc, err := oras.Copy(ctx, fs, opts.Tag, dst, opts.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, rigerrors.WrapWithContext(rigerrors.ErrCodeUnavailable,
			"failed to push artifact", err, map[string]any{"reference": ref})
	}

	slog.Info("artifact pushed", "reference", ref, "digest", desc.Digest.String())
	return &PushResult{Digest: desc.Digest.String(), Reference: ref}, nil
}

// stripProtocol removes an http:// or https:// prefix.
func stripProtocol(registry string) string {
	registry = strings.TrimPrefix(registry, "https://")
	return strings.TrimPrefix(registry, "http://")
}

// createAuthClient returns a client using Docker credentials, optionally
// skipping TLS verification.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Debug("docker credentials unavailable, pushing anonymously", "error", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
