// Package keyword implements unsupervised statistical keyword extraction.
//
// Extraction is an explicit pipeline:
//
//  1. Segment splits plain text into sentences of words.
//  2. Candidate generation emits every 1..N word phrase inside a phrase block
//     that neither starts nor ends with a stop word.
//  3. Term statistics are collected per normalized word: frequency, casing,
//     sentence positions and left/right neighbors.
//  4. Each word gets a score from its casing, position, frequency,
//     relatedness and spread features, and each candidate a score composed
//     from its words, its own frequency and its cohesion.
//  5. Dedupe keeps the best-scored representative of near-duplicate phrases.
//
// Scores follow a single convention: lower is better.
//
// Statistics never outlive one call, so the keywords of a text never depend
// on any other text. Output is deterministic: terms and candidates are kept in
// first-seen order and ties are broken by generation order.
//
// # Usage
//
//	e := keyword.NewExtractor(keyword.WithMaxNGram(2))
//	phrases := e.Extract(text, 10)
package keyword
