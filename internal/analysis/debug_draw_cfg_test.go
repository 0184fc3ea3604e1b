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

package analysis

import (
    `os`
    `path/filepath`
    `testing`

    `github.com/stretchr/testify/require`
)

func TestDrawCFG(t *testing.T) {
    fn, _ := buildDiamond(t)
    dt := BuildDominatorTree(fn)
    out := filepath.Join(t.TempDir(), "cfg.svg")

    DrawCFG(out, fn, dt)
    data, err := os.ReadFile(out)
    require.NoError(t, err)
    require.Contains(t, string(data), "<svg")
    require.Contains(t, string(data), "entry:")
}
