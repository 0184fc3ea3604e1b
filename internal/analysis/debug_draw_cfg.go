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
    `strings`

    `github.com/ajstarks/svgo`

    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
)

// DrawCFG renders the function as one row of blocks per dominator
// tree depth, with CFG edges in gray and immediate dominator edges in
// red. Debugging aid, the output layout is stable but crude.
func DrawCFG(fn string, f *ir.Function, dt *DominatorTree) {
    depth := make(map[int]int)
    lanes := make(map[int]int)
    pos := make(map[int][2]int)
    maxw := 0

    /* block depth = dominator tree depth */
    dt.Preorder().ForEach(func(bb *ir.BasicBlock) {
        if idom := dt.Idom(bb); idom != nil {
            depth[bb.Id] = depth[idom.Id] + 1
        }
    })

    /* widest block text decides the column width */
    for _, bb := range f.Blocks {
        for _, p := range bb.Instructions() {
            if n := len(p.Dump()); n > maxw {
                maxw = n
            }
        }
    }
    boxw := maxw * 8 + 32
    boxh := 0
    for _, bb := range f.Blocks {
        if n := len(bb.Instructions()); n > boxh {
            boxh = n
        }
    }
    boxh = boxh * 18 + 40

    /* assign one lane per block within its depth row */
    maxlane := 0
    dt.Preorder().ForEach(func(bb *ir.BasicBlock) {
        d := depth[bb.Id]
        pos[bb.Id] = [2]int { lanes[d], d }
        lanes[d]++
        if lanes[d] > maxlane {
            maxlane = lanes[d]
        }
    })

    fp, err := os.OpenFile(fn, os.O_RDWR | os.O_CREATE | os.O_TRUNC, 0644)
    if err != nil {
        panic(err)
    }
    defer fp.Close()

    maxd := 0
    for _, d := range depth {
        if d > maxd {
            maxd = d
        }
    }

    p := svg.New(fp)
    p.Start(maxlane * (boxw + 40) + 80, (maxd + 1) * (boxh + 60) + 80)

    /* edges first so the boxes cover them */
    center := func(id int) (int, int) {
        at := pos[id]
        return at[0] * (boxw + 40) + 40 + boxw / 2, at[1] * (boxh + 60) + 40 + boxh / 2
    }
    for _, bb := range f.Blocks {
        if _, ok := pos[bb.Id]; !ok {
            continue
        }
        x0, y0 := center(bb.Id)
        for _, s := range bb.Succs() {
            x1, y1 := center(s.Id)
            p.Line(x0, y0, x1, y1, "stroke:gray;stroke-width:1")
        }
        if idom := dt.Idom(bb); idom != nil {
            x1, y1 := center(idom.Id)
            p.Line(x0, y0, x1, y1, "stroke:red;stroke-width:1;stroke-dasharray:4")
        }
    }

    /* then the block boxes */
    for _, bb := range f.Blocks {
        at, ok := pos[bb.Id]
        if !ok {
            continue
        }
        x := at[0] * (boxw + 40) + 40
        y := at[1] * (boxh + 60) + 40
        p.Rect(x, y, boxw, boxh, "fill:white;stroke:black")
        p.Text(x + 8, y + 18, bb.Label() + ":", "fill:black;font-size:14px;font-family:monospace;font-weight:bold")
        for i, v := range bb.Instructions() {
            s := strings.TrimSpace(v.Dump())
            p.Text(x + 16, y + 36 + i * 18, s, "fill:black;font-size:13px;font-family:monospace")
        }
    }
    p.End()
}
