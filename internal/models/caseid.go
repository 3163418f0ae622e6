// Copyright (c) 2026 John Earle
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

package models

import (
	"regexp"
	"strings"
)

// caseIDShape splits a docket identifier into its core and the optional
// judge-initials suffix, e.g. "9:21-cv-00029" + "-MJT".
var caseIDShape = regexp.MustCompile(`(?i)^(\d:\d{2}-[a-z]{2}-\d+)(-[a-z]+)?$`)

// NormalizeCaseID canonicalizes a docket identifier so extracted ids and
// routing-table keys compare equal: surrounding whitespace stripped, the
// docket core lower-cased, the judge suffix upper-cased. Strings that do
// not match the docket shape are lower-cased as-is.
func NormalizeCaseID(raw string) string {
	id := strings.TrimSpace(raw)
	m := caseIDShape.FindStringSubmatch(id)
	if m == nil {
		return strings.ToLower(id)
	}
	out := strings.ToLower(m[1])
	if m[2] != "" {
		out += strings.ToUpper(m[2])
	}
	return out
}
