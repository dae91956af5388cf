// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

// Package mlockall locks the process's memory pages in RAM so vault secret
// material is never paged to swap.
package mlockall

import "syscall"

// Lock calls mlockall(MCL_CURRENT|MCL_FUTURE). It returns an error rather
// than exiting the process: an embeddable library must let its caller
// decide whether a failed mlockall is fatal.
func Lock() error {
	return syscall.Mlockall(syscall.MCL_CURRENT | syscall.MCL_FUTURE)
}
