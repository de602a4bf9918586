// Copyright 2023 The Cockroach Authors
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
//
// SPDX-License-Identifier: Apache-2.0

// Package secure configures TLS for outbound connections.
package secure

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pkg/errors"
)

// GetCA retrieves the pool of CA certificates
// from the system and the specified file.
func GetCA(path string) (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, errors.New("failed to get system certificates")
	}
	if path == "" {
		return pool, nil
	}
	caPem, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read CA certificate")
	}
	if !pool.AppendCertsFromPEM(caPem) {
		return nil, errors.New("failed to add CA")
	}
	return pool, nil
}

// KeyPair loads a client certificate and its private key from disk.
func KeyPair(certFile, keyFile string) (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	return cert, errors.WithStack(err)
}
