// Package kernel implements the portable kernel execution model: iteration
// spaces and their partitioning into workgroups, kernel descriptors, the
// per-work-item execution context, and the backend registry.
//
// Indices are 0-based and flatten in row-major order.
package kernel
