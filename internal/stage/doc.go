// Package stage defines the fixed, partially-ordered set of pipeline stages
// and the lineages files travel through them.
//
// A file belongs to exactly one lineage. Raw recordings travel
// extracted_audio -> transcribed -> structured; pre-existing timestamped
// transcripts travel record_text_raw -> structured. Both lineages feed the
// same terminal stage.
package stage
