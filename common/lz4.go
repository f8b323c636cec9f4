// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
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

package common

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// NewCompressedWriter wraps w in an lz4 frame writer with block checksums enabled. The caller
// must Close the returned writer to flush the final frame
func NewCompressedWriter(w io.Writer) (io.WriteCloser, error) {
	zw := lz4.NewWriter(w)
	if err := zw.Apply(lz4.BlockChecksumOption(true), lz4.CompressionLevelOption(lz4.Level5)); err != nil {
		return nil, err
	}
	return zw, nil
}

// Compress returns the lz4 frame encoding of in
func Compress(in []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw, err := NewCompressedWriter(buf)
	if err != nil {
		return nil, err
	}

	if _, err := zw.Write(in); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decompress reverses Compress
func Decompress(in []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, lz4.NewReader(bytes.NewReader(in))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
