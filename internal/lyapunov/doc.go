// Package lyapunov provides structurally constrained Lyapunov candidate
// networks. Every structure satisfies V(0) = 0 by construction; the
// positive-definite ones additionally guarantee V(x) > 0 for x != 0.
//
// Networks are evaluated on batches (one state per row) and are plain
// exported structs so they can be persisted with encoding/gob.
package lyapunov
