// Package uicore implements the layout and rendering core of a
// retained-mode GUI framework for the GoGPU ecosystem.
//
// # Overview
//
// uicore takes a styled DOM (a tree of boxes, text and images with
// CSS-like style) and turns it into compositor draw calls in four
// stages:
//
//  1. Box-tree construction (package boxtree): anonymous wrapper boxes
//     are inserted so that every parent has uniformly block or
//     uniformly inline children.
//  2. Layout (package layout): widths, heights and positions are
//     resolved per formatting context (block, inline, flex, table,
//     absolute), producing an absolutely positioned rectangle for
//     every node. Inline content is delegated to package text, which
//     performs BiDi analysis, shaping, line breaking, justification
//     and shape-aware flow.
//  3. Display-list building (package display): positioned boxes become
//     an ordered list of typed drawing items with stacking contexts,
//     clips, scroll frames and hit-test areas.
//  4. Frame building (package frame): the display list is partitioned
//     into tile-cached picture slices, a render-task graph is
//     scheduled, and draw calls are issued against a compositor
//     backend. Tiles are invalidated by dirty-rect diffing and reused
//     across frames.
//
// The root package provides the shared geometry and color types and
// the logging configuration. Package document ties the pipeline
// together across the scene and render threads with a transaction
// queue and checkpoint notifications.
//
// # What uicore is not
//
// uicore does not open windows, dispatch platform events, bind GPU
// drivers or parse CSS. It consumes an already-styled DOM plus a
// viewport size, a font byte loader, and a compositor backend; the
// host application supplies all three.
//
// # Threads
//
// Scene building (box tree, style, layout, display list, slicing) runs
// on a scene goroutine; frame building (task graph, tile updates,
// compositor submission) runs on a render goroutine. State changes are
// submitted as transactions and applied in submission order. See
// package document for details.
package uicore
