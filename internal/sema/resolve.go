package sema

import (
	"obx/internal/ast"
	"obx/internal/diag"
)

// resolveCtx tracks where in a type expression the resolver currently
// is; self-references are legal only behind a pointer or inside record
// or procedure-type composition.
type resolveCtx struct {
	current     *ast.NamedType
	inPointer   bool
	inComposite bool
}

func (r resolveCtx) pointer() resolveCtx {
	r.inPointer = true
	return r
}

func (r resolveCtx) composite() resolveCtx {
	r.inComposite = true
	return r
}

// resolveModule closes the module's type graph: named types first, in
// declaration order, then every other declared entity.
func (c *Checker) resolveModule() {
	for _, e := range c.mod.Scope.Order {
		if nt, ok := e.(*ast.NamedType); ok {
			c.resolveNamedType(nt)
		}
	}
	c.resolveScope(&c.mod.Scope)
}

// resolveNamedType resolves the declared type of nt once. Reentrant
// calls observe the in-progress marker and take the self-reference
// path at the quali that caused them.
func (c *Checker) resolveNamedType(nt *ast.NamedType) {
	if c.resolved[nt] != 0 {
		return
	}
	c.resolved[nt] = 1
	c.resolveType(nt.Type, &nt.Scope, resolveCtx{current: nt})
	c.resolved[nt] = 2
}

func (c *Checker) resolveScope(s *ast.Scope) {
	for _, e := range s.Order {
		switch x := e.(type) {
		case *ast.NamedType:
			c.resolveNamedType(x)
		case *ast.Variable:
			c.resolveType(x.Type, s, resolveCtx{})
		case *ast.LocalVar:
			c.resolveType(x.Type, s, resolveCtx{})
		case *ast.Const:
			c.resolveConst(x, s)
		case *ast.Procedure:
			c.resolveProcedure(x, s)
		}
	}
}

// resolveConst evaluates the defining expression of a constant.
func (c *Checker) resolveConst(cn *ast.Const, s *ast.Scope) {
	if cn.ConstExpr == nil {
		return // enumeration items carry their ordinal already
	}
	t := c.checkExpr(cn.ConstExpr, s)
	cn.Type = t
	val, ok := c.fold(cn.ConstExpr)
	if !ok {
		diag.Error(c.reporter, diag.SemConstNotConstant, cn.ConstExpr.Span(),
			cn.Name+" requires a compile-time constant")
		cn.HasErrors = true
		return
	}
	cn.Val = val
}

// resolveProcedure resolves signature and receiver, attaches methods
// to their record, and recurses into the procedure's own scope.
func (c *Checker) resolveProcedure(p *ast.Procedure, s *ast.Scope) {
	pt := p.ProcType()
	if pt == nil {
		return
	}
	if p.Receiver != nil {
		c.resolveType(p.Receiver.Type, s, resolveCtx{})
		c.attachMethod(p)
	}
	for _, f := range pt.Formals {
		c.resolveType(f.Type, &p.Scope, resolveCtx{})
	}
	if pt.Return != nil {
		c.resolveType(pt.Return, &p.Scope, resolveCtx{})
	}
	c.resolveScope(&p.Scope)
}

// attachMethod binds a receiver procedure into its record's namespace;
// a same-named inherited procedure becomes the override's super.
func (c *Checker) attachMethod(p *ast.Procedure) {
	rec := recordOf(p.Receiver.Type)
	if rec == nil {
		diag.Error(c.reporter, diag.SemTypeMismatch, p.Receiver.Span(),
			"receiver must be a record or a pointer to a record")
		p.HasErrors = true
		return
	}
	p.ReceiverRec = rec
	switch old := rec.Find(p.Name, true).(type) {
	case nil:
	case *ast.Procedure:
		if rec.Names[p.Name] == ast.Entity(old) {
			diag.Error(c.reporter, diag.SemDuplicateName, p.Span(),
				p.Name+" is already bound to this record")
			p.HasErrors = true
			return
		}
		p.Super = old
		old.Subs = append(old.Subs, p)
	default:
		diag.Error(c.reporter, diag.SemDuplicateName, p.Span(),
			p.Name+" clashes with an inherited member")
		p.HasErrors = true
		return
	}
	rec.Names[p.Name] = p
	rec.Methods = append(rec.Methods, p)
}

// resolveType closes one type expression.
func (c *Checker) resolveType(t ast.Type, s *ast.Scope, rctx resolveCtx) {
	switch x := t.(type) {
	case nil:
		return
	case *ast.QualiType:
		c.resolveQuali(x, s, rctx)
	case *ast.Pointer:
		c.resolvePointer(x, s, rctx)
	case *ast.Record:
		c.resolveRecord(x, s, rctx)
	case *ast.Array:
		c.resolveArray(x, s, rctx)
	case *ast.ProcType:
		for _, f := range x.Formals {
			c.resolveType(f.Type, s, rctx.composite())
		}
		c.resolveType(x.Return, s, rctx.composite())
	}
}

func (c *Checker) resolvePointer(p *ast.Pointer, s *ast.Scope, rctx resolveCtx) {
	c.resolveType(p.To, s, rctx.pointer())
	switch d := deref(p.To).(type) {
	case *ast.QualiType:
		// unresolved or a self-reference still being composed
	case *ast.Record:
		if d.Decl() == nil {
			if d.Binding == nil {
				d.Binding = p
			} else if d.Binding != p {
				diag.Warning(c.reporter, diag.SemAnonRecordRebound, p.Span(),
					"anonymous record is already bound to another pointer")
			}
		}
	case *ast.Array:
	case nil:
	default:
		diag.Error(c.reporter, diag.SemPointerBaseIllegal, p.Span(),
			"pointer base must be a record or an array, not "+d.Pretty())
	}
}

func (c *Checker) resolveRecord(r *ast.Record, s *ast.Scope, rctx resolveCtx) {
	if r.Base != nil {
		c.resolveQuali(r.Base, s, rctx.composite())
		markRole(r.Base.Quali, ast.SuperRole)
		bd := deref(r.Base)
		if bp, ok := bd.(*ast.Pointer); ok {
			bd = deref(bp.To)
		}
		if baseRec, ok := bd.(*ast.Record); ok {
			r.BaseRec = baseRec
			baseRec.SubRecs = append(baseRec.SubRecs, r)
			c.checkExtensionChain(r)
			c.checkInheritedFields(r)
		} else if !r.Base.SelfRef {
			diag.Error(c.reporter, diag.SemRecordBaseIllegal, r.Base.Span(),
				"record base must be a record or a pointer to a record")
		}
	}
	for _, f := range r.Fields {
		c.resolveType(f.Type, s, rctx.composite())
	}
}

// checkExtensionChain walks the base chain, rejecting cycles and
// chains deeper than the extension cap.
func (c *Checker) checkExtensionChain(r *ast.Record) {
	seen := make(map[*ast.Record]bool)
	depth := 0
	for cur := r; cur != nil; cur = cur.BaseRec {
		if seen[cur] {
			diag.Error(c.reporter, diag.SemExtensionCycle, r.Span(),
				"record extension chain is cyclic")
			r.BaseRec = nil
			return
		}
		seen[cur] = true
		depth++
		if depth > c.maxExt {
			diag.Error(c.reporter, diag.SemExtensionTooDeep, r.Span(),
				"record extension chain exceeds the supported depth")
			return
		}
	}
}

// checkInheritedFields rejects fields clashing with inherited members
// unless the new field's type is an extension of the inherited field's
// type (a specialization).
func (c *Checker) checkInheritedFields(r *ast.Record) {
	if r.BaseRec == nil {
		return
	}
	for _, f := range r.Fields {
		inherited := r.BaseRec.Find(f.Name, true)
		if inherited == nil {
			continue
		}
		if old, ok := inherited.(*ast.Field); ok && extends(f.Type, old.Type) {
			f.Specialization = true
			continue
		}
		diag.Error(c.reporter, diag.SemDuplicateName, f.Span(),
			f.Name+" is already declared in a base record")
		f.HasErrors = true
	}
}

func (c *Checker) resolveArray(a *ast.Array, s *ast.Scope, rctx resolveCtx) {
	if a.LenExpr != nil {
		c.checkExpr(a.LenExpr, s)
		n, ok := c.foldInt(a.LenExpr)
		if !ok || n < 1 {
			diag.Error(c.reporter, diag.SemArrayLenError, a.LenExpr.Span(),
				"array length must be a compile-time integer >= 1")
		} else {
			a.Len = n
		}
	}
	c.resolveType(a.Elem, s, rctx.composite())
}

// resolveQuali links a named-type reference to its declaration and
// instantiates generic templates.
func (c *Checker) resolveQuali(q *ast.QualiType, s *ast.Scope, rctx resolveCtx) {
	for _, a := range q.MetaActuals {
		c.resolveType(a, s, rctx)
	}

	var target ast.Entity
	switch x := q.Quali.(type) {
	case *ast.IdentLeaf:
		if x.Ident == nil {
			target = s.Find(x.Name, true)
			if target == nil {
				target = c.universe.Find(x.Name)
			}
			if target == nil {
				diag.Error(c.reporter, diag.SemUnresolvedIdent, x.Span(),
					x.Name+" is not declared")
				return
			}
			x.Ident = target
			x.Role = ast.RhsRole
		} else {
			target = x.Ident
		}
	case *ast.IdentSel:
		target = c.resolveQualiSel(x, s)
		if target == nil {
			return
		}
	default:
		return
	}

	if target == ast.Entity(rctx.current) || c.isResolving(target) {
		q.SelfRef = true
		if !rctx.inPointer && !rctx.inComposite {
			diag.Error(c.reporter, diag.SemIllegalSelfRef, q.Span(),
				"type refers to itself outside a pointer or composite type")
		}
		return
	}

	switch e := target.(type) {
	case *ast.NamedType:
		c.resolveNamedType(e)
		if len(q.MetaActuals) > 0 {
			c.applyInstantiation(q, e)
		}
	case *ast.GenericName:
		// resolves to whatever the parameter is bound to
	default:
		diag.Error(c.reporter, diag.SemTypeMismatch, q.Span(),
			q.Pretty()+" does not name a type")
	}
}

// markRole overrides the role of an identifier use.
func markRole(e ast.Expression, role ast.IdentRole) {
	switch x := e.(type) {
	case *ast.IdentLeaf:
		x.Role = role
	case *ast.IdentSel:
		x.Role = role
	}
}

func (c *Checker) isResolving(e ast.Entity) bool {
	nt, ok := e.(*ast.NamedType)
	return ok && c.resolved[nt] == 1
}

// resolveQualiSel resolves m.T against the imported module m.
func (c *Checker) resolveQualiSel(sel *ast.IdentSel, s *ast.Scope) ast.Entity {
	if sel.Ident != nil {
		return sel.Ident
	}
	leaf, ok := sel.Sub.(*ast.IdentLeaf)
	if !ok {
		return nil
	}
	var modEnt ast.Entity
	if leaf.Ident != nil {
		modEnt = leaf.Ident
	} else {
		modEnt = s.Find(leaf.Name, true)
	}
	imp, ok := modEnt.(*ast.Import)
	if !ok {
		diag.Error(c.reporter, diag.SemUnresolvedIdent, leaf.Span(),
			leaf.Name+" is not an imported module")
		return nil
	}
	leaf.Ident = imp
	leaf.Role = ast.ImportRole
	imp.UsedFromLive = true
	if imp.Mod == nil {
		return nil // load failure already reported
	}
	e := imp.Mod.Scope.Find(sel.Name, false)
	if e == nil {
		diag.Error(c.reporter, diag.SemUnresolvedIdent, sel.Span(),
			sel.Name+" is not declared in module "+imp.Mod.Name)
		return nil
	}
	if !e.Base().IsPublic() {
		diag.Error(c.reporter, diag.SemNotExported, sel.Span(),
			sel.Name+" is not exported by module "+imp.Mod.Name)
		return nil
	}
	sel.Ident = e
	sel.Role = ast.RhsRole
	return e
}

// applyInstantiation replaces the quali's target with a synthetic
// declaration of the instantiated type.
func (c *Checker) applyInstantiation(q *ast.QualiType, template *ast.NamedType) {
	if len(template.MetaParams) != len(q.MetaActuals) {
		diag.Error(c.reporter, diag.SemGenericArity, q.Span(),
			template.Name+" expects a different number of generic arguments")
		return
	}
	inst := c.instantiate(template, q.MetaActuals, q.Span())
	if inst == nil {
		return
	}
	switch x := q.Quali.(type) {
	case *ast.IdentLeaf:
		x.Ident = inst
	case *ast.IdentSel:
		x.Ident = inst
	}
}
