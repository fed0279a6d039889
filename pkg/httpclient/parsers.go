// Copyright 2025 Kadir Pekel
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

package httpclient

import (
	"net/http"
	"strconv"
	"time"
)

// ParseAzureHeaders extracts retry hints from Azure service headers.
// retry-after-ms wins over Retry-After when both are present.
func ParseAzureHeaders(headers http.Header) RateLimitInfo {
	info := RateLimitInfo{RequestsRemaining: -1}

	if ms := headers.Get("retry-after-ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			info.RetryAfter = time.Duration(v) * time.Millisecond
		}
	}
	if info.RetryAfter == 0 {
		if retryAfter := headers.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil {
				info.RetryAfter = time.Duration(seconds) * time.Second
			} else if at, err := http.ParseTime(retryAfter); err == nil {
				info.ResetTime = at.Unix()
			}
		}
	}

	if v := headers.Get("x-ratelimit-remaining-requests"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			info.RequestsRemaining = n
		}
	}

	return info
}
