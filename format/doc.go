// Package format names the document formats beanmap reads and writes.
package format
