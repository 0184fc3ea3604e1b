/*
 * Copyright 2024 the llvm-opt-passes Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package optpasses

import (
    `fmt`
    `strings`
)

// UnknownPassError occurs when Run is asked for a name that was never
// registered. Individual transformations never surface errors, a pass
// always completes with a normal result.
type UnknownPassError struct {
    Name string
}

func (self UnknownPassError) Error() string {
    return fmt.Sprintf(
        "UnknownPassError(%q): registered passes are %s",
        self.Name,
        strings.Join(RegisteredPasses(), ", "),
    )
}
