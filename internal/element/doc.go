// Package element defines the optics placed on a bench.
//
// An [Element] is a closed variant selected by [Kind]:
//
//   - [Source]: the laser, identity matrix, named "Source"
//   - [Lens]: thin lens of fixed focal length
//   - [TunableLens]: lens whose focal length is bounded by a [FocalRange]
//   - [PointOfInterest]: marker with no optical effect
//
// Focal ranges are compared in focal power (see [Classify]) because focal
// length is discontinuous where power crosses zero.
package element
