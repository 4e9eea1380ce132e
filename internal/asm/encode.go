package asm

var magic = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00} // magic + version

func encode(m *Module) []byte {
	buf := &Buffer{}
	buf.WriteBytes(magic)

	if len(m.types) > 0 {
		encodeTypeSection(buf, m)
	}
	if len(m.imports) > 0 {
		encodeImportSection(buf, m)
	}
	if len(m.funcs) > 0 {
		encodeFuncSection(buf, m)
	}
	if m.memory != nil {
		encodeMemorySection(buf, m)
	}
	if len(m.globals) > 0 {
		encodeGlobalSection(buf, m)
	}
	if len(m.exports) > 0 {
		encodeExportSection(buf, m)
	}
	if len(m.funcs) > 0 {
		encodeCodeSection(buf, m)
	}

	return buf.Bytes
}

func writeSection(buf *Buffer, id byte, content *Buffer) {
	buf.AppendByte(id)
	buf.WriteU32(uint32(len(content.Bytes)))
	buf.WriteBytes(content.Bytes)
}

func encodeTypeSection(buf *Buffer, m *Module) {
	sec := &Buffer{}
	sec.WriteU32(uint32(len(m.types)))
	for _, ft := range m.types {
		sec.AppendByte(funcTypeMarker)
		sec.WriteU32(uint32(len(ft.Params)))
		for _, p := range ft.Params {
			sec.AppendByte(byte(p))
		}
		sec.WriteU32(uint32(len(ft.Results)))
		for _, r := range ft.Results {
			sec.AppendByte(byte(r))
		}
	}
	writeSection(buf, sectionType, sec)
}

func encodeImportSection(buf *Buffer, m *Module) {
	sec := &Buffer{}
	sec.WriteU32(uint32(len(m.imports)))
	for _, imp := range m.imports {
		sec.WriteString(imp.Module)
		sec.WriteString(imp.Name)
		sec.AppendByte(KindFunc)
		sec.WriteU32(imp.TypeIdx)
	}
	writeSection(buf, sectionImport, sec)
}

func encodeFuncSection(buf *Buffer, m *Module) {
	sec := &Buffer{}
	sec.WriteU32(uint32(len(m.funcs)))
	for _, f := range m.funcs {
		sec.WriteU32(f.typeIdx)
	}
	writeSection(buf, sectionFunc, sec)
}

func encodeMemorySection(buf *Buffer, m *Module) {
	sec := &Buffer{}
	sec.WriteU32(1)
	sec.WriteLimits(m.memory.Min, m.memory.Max)
	writeSection(buf, sectionMemory, sec)
}

func encodeGlobalSection(buf *Buffer, m *Module) {
	sec := &Buffer{}
	sec.WriteU32(uint32(len(m.globals)))
	for _, g := range m.globals {
		sec.AppendByte(byte(g.Type))
		if g.Mutable {
			sec.AppendByte(0x01)
		} else {
			sec.AppendByte(0x00)
		}
		if g.Type == I64 {
			sec.AppendByte(opI64Const)
			sec.WriteI64(g.Init)
		} else {
			sec.AppendByte(opI32Const)
			sec.WriteI32(int32(g.Init))
		}
		sec.AppendByte(opEnd)
	}
	writeSection(buf, sectionGlobal, sec)
}

func encodeExportSection(buf *Buffer, m *Module) {
	sec := &Buffer{}
	sec.WriteU32(uint32(len(m.exports)))
	for _, e := range m.exports {
		sec.WriteString(e.Name)
		sec.AppendByte(e.Kind)
		sec.WriteU32(e.Idx)
	}
	writeSection(buf, sectionExport, sec)
}

func encodeCodeSection(buf *Buffer, m *Module) {
	sec := &Buffer{}
	sec.WriteU32(uint32(len(m.funcs)))
	for _, f := range m.funcs {
		body := &Buffer{}
		encodeLocals(body, f.locals)
		for _, ins := range f.code {
			encodeInstr(body, ins)
		}
		body.AppendByte(opEnd)

		sec.WriteU32(uint32(len(body.Bytes)))
		sec.WriteBytes(body.Bytes)
	}
	writeSection(buf, sectionCode, sec)
}

// encodeLocals run-length groups consecutive locals of the same type.
func encodeLocals(buf *Buffer, locals []ValType) {
	type group struct {
		count uint32
		typ   ValType
	}
	var groups []group
	for _, l := range locals {
		if n := len(groups); n > 0 && groups[n-1].typ == l {
			groups[n-1].count++
			continue
		}
		groups = append(groups, group{count: 1, typ: l})
	}
	buf.WriteU32(uint32(len(groups)))
	for _, g := range groups {
		buf.WriteU32(g.count)
		buf.AppendByte(byte(g.typ))
	}
}

func encodeInstr(buf *Buffer, ins Instr) {
	buf.AppendByte(ins.Opcode)

	switch ins.Opcode {
	case opBr, opBrIf, opCall,
		opLocalGet, opLocalSet, opLocalTee,
		opGlobalGet, opGlobalSet:
		buf.WriteU32(ins.Imm.(uint32))

	case opI32Const:
		buf.WriteI32(ins.Imm.(int32))

	case opI64Const:
		buf.WriteI64(ins.Imm.(int64))

	case opBlock, opLoop, opIf:
		buf.AppendByte(ins.Imm.(byte))

	case opI32Load, opI32Load8U, opI32Store, opI32Store8:
		ma := ins.Imm.(Memarg)
		buf.WriteU32(ma.Align)
		buf.WriteU32(ma.Offset)

	case opMemorySize:
		buf.AppendByte(0x00)

	case opPrefixMisc:
		for _, v := range ins.Imm.([]uint32) {
			buf.WriteU32(v)
		}
	}
}
