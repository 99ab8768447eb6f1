package handledb

// Merge copies every key/value pair of src into d, overwriting values of keys
// present in both.
//
// With batchMerge the copy is staged into a single batch and applied
// atomically, so d is never seen half-merged. Without it the copy is applied
// in chunks of about IdealBatchSize bytes, and readers may observe progress;
// an error leaves the chunks written so far in place.
//
// Merging a database into itself, or into a peer, changes nothing.
func (d *DB) Merge(src *DB, batchMerge bool) error {
	dst, err := d.live("merge")
	if err != nil {
		return err
	}
	if src == nil {
		return closedErr("merge: source")
	}
	from, err := src.live("merge: source")
	if err != nil {
		return err
	}
	return nativeErr(dst.engine.Merge(dst.handle, from.handle, batchMerge), "merge")
}
