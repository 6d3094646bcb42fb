// Package poster implements the content-addressed poster store.
//
// Each media folder's poster lives at a location derived purely from
// the folder path's fingerprint, so resolving a poster never requires
// listing directories or consulting an index. The package also
// migrates the legacy <folder>/poster.jpg convention into the store,
// one folder at a time or across a whole tree.
package poster
