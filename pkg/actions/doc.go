// Package actions provides the bundled actions a subscription can bind:
//
//   - "cmd" runs a host command on behalf of the subscriber.
//   - "move" moves the subscriber through one of the exits of its location,
//     resolved by fuzzy name match.
//
// Both are plain registry.ActionFunc values; Register installs them on a registry.
package actions
