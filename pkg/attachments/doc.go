// Package attachments manages the ordered list of files a user attaches to an
// instruction. Files are held by reference and never read until submission.
package attachments
