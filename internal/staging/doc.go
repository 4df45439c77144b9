// Package staging reclaims request work directories under paths.work_dir.
//
// A render removes its own work directory when it returns; this package
// handles what a crash or kill leaves behind.
package staging
