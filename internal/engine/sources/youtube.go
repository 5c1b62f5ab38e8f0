// Package sources acquires caption transcripts from YouTube.
//
// The YouTube pipeline is split across files by responsibility:
//
//	youtube_video.go      video id extraction, embedded JSON scanning
//	youtube_innertube.go  Innertube constants, wire types, request headers
//	youtube_transport.go  Transport abstraction: net/http, go-stealth, rate limiting
//	youtube_discover.go   caption track discovery (watch page scrape, ANDROID player API)
//	youtube_select.go     track model and preference ordering
//	youtube_fetch.go      single caption fetch and its failure classification
//	youtube_format.go     payload sniffing and XML / json3 parsing
//	youtube_timecode.go   m:ss rendering
//	youtube_transcript.go the acquisition state machine and retry matrix
package sources
