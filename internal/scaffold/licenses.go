package scaffold

import (
	"sort"
	"strings"

	"github.com/ri0t/isomer/internal/errors"
)

// License describes one selectable plugin license. Name is the value
// written into the manifest's license field, LongText the notice block
// rendered into file headers and the LICENSE file.
type License struct {
	ID       string
	Name     string
	LongText string
}

const agplNotice = `This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.`

const gplNotice = `This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.`

const mitNotice = `Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.`

const apacheNotice = `Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.`

// DefaultLicense is used whenever a plugin does not name one.
const DefaultLicense = "AGPLv3"

var licenses = map[string]License{
	"AGPLv3": {
		ID:       "AGPLv3",
		Name:     "GNU Affero General Public License v3",
		LongText: agplNotice,
	},
	"GPLv3": {
		ID:       "GPLv3",
		Name:     "GNU General Public License v3",
		LongText: gplNotice,
	},
	"MIT": {
		ID:       "MIT",
		Name:     "MIT License",
		LongText: mitNotice,
	},
	"Apache-2.0": {
		ID:       "Apache-2.0",
		Name:     "Apache License 2.0",
		LongText: apacheNotice,
	},
}

// LicenseByID resolves a license identifier case-insensitively.
func LicenseByID(id string) (License, error) {
	for key, lic := range licenses {
		if strings.EqualFold(key, id) {
			return lic, nil
		}
	}
	return License{}, errors.Newf(errors.InvalidPluginName,
		"unknown license %q, known licenses: %s", id, strings.Join(LicenseIDs(), ", "))
}

// LicenseIDs returns the known license identifiers, sorted.
func LicenseIDs() []string {
	ids := make([]string, 0, len(licenses))
	for id := range licenses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
