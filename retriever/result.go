// Copyright 2026 Google LLC. All Rights Reserved.
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

package retriever

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ResultCode is the outcome of a subgrid retrieval.
type ResultCode int

const (
	// NoError means the client grid holds the result, which may be empty.
	NoError ResultCode = iota
	// SubGridNotFound means the site has no subgrid at the address.
	SubGridNotFound
	// FailedToComputeDesignFilterPatch means the spatial filter's design
	// mask could not be computed.
	FailedToComputeDesignFilterPatch
	// UnknownError means a collaborator failed; the error is returned
	// alongside.
	UnknownError
	// Unsupported means the address named a node, or a leaf that does not
	// hold cell passes. The client grid is untouched.
	Unsupported
)

var resultCodeNames = []string{"NoError", "SubGridNotFound", "FailedToComputeDesignFilterPatch", "UnknownError", "Unsupported"}

func (c ResultCode) String() string {
	if c >= 0 && int(c) < len(resultCodeNames) {
		return resultCodeNames[c]
	}
	return fmt.Sprintf("ResultCode(%d)", int(c))
}

// Err returns c as a gRPC status error, or nil for NoError.
func (c ResultCode) Err() error {
	switch c {
	case NoError:
		return nil
	case SubGridNotFound:
		return status.Error(codes.NotFound, "subgrid not found")
	case FailedToComputeDesignFilterPatch:
		return status.Error(codes.FailedPrecondition, "failed to compute design filter patch")
	case Unsupported:
		return status.Error(codes.Unimplemented, "subgrid is not a cell pass leaf")
	}
	return status.Errorf(codes.Unknown, "subgrid retrieval failed: %v", c)
}
