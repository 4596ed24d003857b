/*
 * axp264ibox - Cbox collaborator stub: miss-address file and Icache fill.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Grounded on AXP_21264_Add_MAF and the Icache-fill path referenced at
 * original_source/src/cpu/AXP_21264_Ibox.c lines 2823-2888. The bus/
 * cache-coherence machinery itself is out of scope (spec.md
 * Non-goals); this package models only the MAF submission and fill
 * contract the Ibox depends on.
 */

package cbox

import "github.com/belanger/axp264ibox/ibox"

// MAF is one pending miss-address-file entry: a cache line fill in
// flight, keyed by the physical address it will install.
type MAF struct {
	PhysAddr uint64
	Length   int
	IStream  bool
}

// Cbox tracks outstanding MAFs and fills the Icache once a
// fill completes.
type Cbox struct {
	cache   *ibox.ICache
	pending []MAF
	signal  func()
}

// New builds a Cbox bound to the Ibox's Icache and wake-up callback.
func New(cache *ibox.ICache, signal func()) *Cbox {
	return &Cbox{cache: cache, signal: signal}
}

// AddMAF implements ibox.Cbox: queue a fill request (spec.md §6
// "add_maf(Istream, physAddr, 0, AXP_ICACHE_BUF_LEN, false)").
func (c *Cbox) AddMAF(physAddr uint64, length int, istream bool) {
	c.pending = append(c.pending, MAF{PhysAddr: physAddr, Length: length, IStream: istream})
}

// CompleteFill installs the fetched line into the Icache and signals
// the Ibox; called once the (out-of-scope) bus/memory access behind a
// MAF finishes.
func (c *Cbox) CompleteFill(vpc ibox.VPC, words [16]uint32, formats [16]ibox.InstructionFormat, pal bool, access uint8, asn uint8) {
	c.cache.Fill(vpc, words, formats, pal, access, asn, false)
	if len(c.pending) > 0 {
		c.pending = c.pending[1:]
	}
	if c.signal != nil {
		c.signal()
	}
}
