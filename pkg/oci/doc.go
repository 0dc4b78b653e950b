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

// Package oci provides functionality for pushing and pulling artifacts to and
// from OCI-compliant registries using ORAS (OCI Registry As Storage).
//
// # Core operations
//
//   - Push: packages a local directory and pushes it as an OCI artifact.
//   - Pull: downloads a tagged OCI artifact's layer into a local directory,
//     verifying the resolved manifest digest.
//   - ParseOutputTarget: parses an "oci://registry/repository:tag" URI or a
//     plain local path into a Reference.
//
// # URI scheme
//
//	oci://registry/repository:tag
//	oci://ghcr.io/nvidia/models:v1.0.0
//
// # Authentication
//
// Both operations use Docker credential helpers for authentication, loaded
// from the standard Docker configuration (~/.docker/config.json) via the
// ORAS credentials package.
package oci
