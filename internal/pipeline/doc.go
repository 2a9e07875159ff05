// Package pipeline runs crawls as a sequence of steps.
//
// A crawl is a Job that goes through SubmitStep (build and create the
// request), WatchStep (follow the status stream into the job's tracker)
// and PersistStep (save the summary to local history). BatchProcessor runs
// one pipeline per URL with bounded concurrency.
package pipeline
