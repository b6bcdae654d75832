// Package language normalizes ISO language codes and infers stream languages
// when container metadata is missing or forced off. Audio detection runs a
// speech model over extracted samples; subtitle detection classifies the SRT
// text. Detection always degrades to the "unk" sentinel instead of failing.
package language
