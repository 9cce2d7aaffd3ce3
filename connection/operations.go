package connection

import (
	"context"
	"fmt"

	"github.com/smnsjas/go-wbem/messages"
	"github.com/smnsjas/go-wbem/objects"
)

// CallOption appends optional IPARAMVALUE parameters to an operation, such
// as DeepInheritance or PropertyList.
type CallOption func(*[]messages.Param)

// WithParam adds one named operation parameter.
func WithParam(name string, value interface{}) CallOption {
	return func(params *[]messages.Param) {
		*params = append(*params, messages.Param{Name: name, Value: value})
	}
}

// WithPropertyList restricts returned properties to the named ones.
func WithPropertyList(names ...string) CallOption {
	vals := make([]interface{}, len(names))
	for i, n := range names {
		vals[i] = n
	}
	return WithParam("PropertyList", vals)
}

// WithDeepInheritance requests subclass properties in enumerations.
func WithDeepInheritance(deep bool) CallOption {
	return WithParam("DeepInheritance", deep)
}

// WithIncludeQualifiers requests qualifiers on returned objects.
func WithIncludeQualifiers(include bool) CallOption {
	return WithParam("IncludeQualifiers", include)
}

// WithIncludeClassOrigin requests CLASSORIGIN attributes on returned
// objects.
func WithIncludeClassOrigin(include bool) CallOption {
	return WithParam("IncludeClassOrigin", include)
}

func buildParams(required []messages.Param, opts []CallOption) []messages.Param {
	params := required
	for _, opt := range opts {
		opt(&params)
	}
	return params
}

// EnumerateInstances returns all instances of className in the connection
// namespace.
func (c *Connection) EnumerateInstances(ctx context.Context, className string, opts ...CallOption) ([]*objects.CIMInstance, error) {
	resp, err := c.intrinsic(ctx, "EnumerateInstances", buildParams([]messages.Param{
		{Name: "ClassName", Value: objects.NewClassName(className)},
	}, opts))
	if err != nil {
		return nil, err
	}
	return c.instancesOf(resp.ReturnValue)
}

// EnumerateInstanceNames returns the paths of all instances of className.
func (c *Connection) EnumerateInstanceNames(ctx context.Context, className string, opts ...CallOption) ([]*objects.CIMInstanceName, error) {
	resp, err := c.intrinsic(ctx, "EnumerateInstanceNames", buildParams([]messages.Param{
		{Name: "ClassName", Value: objects.NewClassName(className)},
	}, opts))
	if err != nil {
		return nil, err
	}
	return c.instanceNamesOf(resp.ReturnValue)
}

// GetInstance retrieves the instance named by path.
func (c *Connection) GetInstance(ctx context.Context, path *objects.CIMInstanceName, opts ...CallOption) (*objects.CIMInstance, error) {
	resp, err := c.intrinsic(ctx, "GetInstance", buildParams([]messages.Param{
		{Name: "InstanceName", Value: path},
	}, opts))
	if err != nil {
		return nil, err
	}
	instances, err := c.instancesOf(resp.ReturnValue)
	if err != nil {
		return nil, err
	}
	if len(instances) != 1 {
		return nil, fmt.Errorf("GetInstance returned %d instances", len(instances))
	}
	inst := instances[0]
	if inst.Path == nil {
		inst.Path = path.Copy()
	}
	return inst, nil
}

// CreateInstance creates inst on the server and returns its path.
func (c *Connection) CreateInstance(ctx context.Context, inst *objects.CIMInstance) (*objects.CIMInstanceName, error) {
	resp, err := c.intrinsic(ctx, "CreateInstance", []messages.Param{
		{Name: "NewInstance", Value: inst},
	})
	if err != nil {
		return nil, err
	}
	names, err := c.instanceNamesOf(resp.ReturnValue)
	if err != nil {
		return nil, err
	}
	if len(names) != 1 {
		return nil, fmt.Errorf("CreateInstance returned %d paths", len(names))
	}
	return names[0], nil
}

// ModifyInstance replaces the property values of the instance named by
// inst.Path with those of inst.
func (c *Connection) ModifyInstance(ctx context.Context, inst *objects.CIMInstance, opts ...CallOption) error {
	if inst.Path == nil {
		return fmt.Errorf("ModifyInstance requires an instance with a path")
	}
	_, err := c.intrinsic(ctx, "ModifyInstance", buildParams([]messages.Param{
		{Name: "ModifiedInstance", Value: messages.NamedInstance{Instance: inst}},
	}, opts))
	return err
}

// DeleteInstance removes the instance named by path.
func (c *Connection) DeleteInstance(ctx context.Context, path *objects.CIMInstanceName) error {
	_, err := c.intrinsic(ctx, "DeleteInstance", []messages.Param{
		{Name: "InstanceName", Value: path},
	})
	return err
}

// Associators returns the instances associated with the source object.
func (c *Connection) Associators(ctx context.Context, source objects.ReferencePath, opts ...CallOption) ([]*objects.CIMInstance, error) {
	resp, err := c.intrinsic(ctx, "Associators", buildParams([]messages.Param{
		{Name: "ObjectName", Value: source},
	}, opts))
	if err != nil {
		return nil, err
	}
	return c.instancesOf(resp.ReturnValue)
}

// AssociatorNames returns the paths of instances associated with the
// source object.
func (c *Connection) AssociatorNames(ctx context.Context, source objects.ReferencePath, opts ...CallOption) ([]objects.ReferencePath, error) {
	resp, err := c.intrinsic(ctx, "AssociatorNames", buildParams([]messages.Param{
		{Name: "ObjectName", Value: source},
	}, opts))
	if err != nil {
		return nil, err
	}
	return c.pathsOf(resp.ReturnValue)
}

// References returns the association instances referring to the source
// object.
func (c *Connection) References(ctx context.Context, source objects.ReferencePath, opts ...CallOption) ([]*objects.CIMInstance, error) {
	resp, err := c.intrinsic(ctx, "References", buildParams([]messages.Param{
		{Name: "ObjectName", Value: source},
	}, opts))
	if err != nil {
		return nil, err
	}
	return c.instancesOf(resp.ReturnValue)
}

// ReferenceNames returns the paths of association instances referring to
// the source object.
func (c *Connection) ReferenceNames(ctx context.Context, source objects.ReferencePath, opts ...CallOption) ([]objects.ReferencePath, error) {
	resp, err := c.intrinsic(ctx, "ReferenceNames", buildParams([]messages.Param{
		{Name: "ObjectName", Value: source},
	}, opts))
	if err != nil {
		return nil, err
	}
	return c.pathsOf(resp.ReturnValue)
}

// ExecQuery runs a query in the given query language (typically "WQL" or
// "DMTF:CQL") and returns the matching instances.
func (c *Connection) ExecQuery(ctx context.Context, queryLanguage, query string) ([]*objects.CIMInstance, error) {
	resp, err := c.intrinsic(ctx, "ExecQuery", []messages.Param{
		{Name: "QueryLanguage", Value: queryLanguage},
		{Name: "Query", Value: query},
	})
	if err != nil {
		return nil, err
	}
	return c.instancesOf(resp.ReturnValue)
}

// InvokeMethod invokes an extrinsic method on the target class or instance
// and returns the method's return value and output parameters.
func (c *Connection) InvokeMethod(ctx context.Context, target objects.ReferencePath, method string, params ...messages.Param) (interface{}, *objects.NamedMap[interface{}], error) {
	resp, err := c.extrinsic(ctx, method, target, params)
	if err != nil {
		return nil, nil, err
	}
	var ret interface{}
	if len(resp.ReturnValue) > 0 {
		ret = resp.ReturnValue[0]
	}
	return ret, resp.OutParams, nil
}

// GetClass retrieves the class definition of className.
func (c *Connection) GetClass(ctx context.Context, className string, opts ...CallOption) (*objects.CIMClass, error) {
	resp, err := c.intrinsic(ctx, "GetClass", buildParams([]messages.Param{
		{Name: "ClassName", Value: objects.NewClassName(className)},
	}, opts))
	if err != nil {
		return nil, err
	}
	classes, err := classesOf(resp.ReturnValue)
	if err != nil {
		return nil, err
	}
	if len(classes) != 1 {
		return nil, fmt.Errorf("GetClass returned %d classes", len(classes))
	}
	return classes[0], nil
}

// EnumerateClasses returns class definitions below className, or the
// top-level classes when className is empty.
func (c *Connection) EnumerateClasses(ctx context.Context, className string, opts ...CallOption) ([]*objects.CIMClass, error) {
	var required []messages.Param
	if className != "" {
		required = append(required, messages.Param{
			Name: "ClassName", Value: objects.NewClassName(className),
		})
	}
	resp, err := c.intrinsic(ctx, "EnumerateClasses", buildParams(required, opts))
	if err != nil {
		return nil, err
	}
	return classesOf(resp.ReturnValue)
}

// EnumerateClassNames returns the names of classes below className, or the
// top-level class names when className is empty.
func (c *Connection) EnumerateClassNames(ctx context.Context, className string, opts ...CallOption) ([]string, error) {
	var required []messages.Param
	if className != "" {
		required = append(required, messages.Param{
			Name: "ClassName", Value: objects.NewClassName(className),
		})
	}
	resp, err := c.intrinsic(ctx, "EnumerateClassNames", buildParams(required, opts))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.ReturnValue))
	for _, v := range resp.ReturnValue {
		cn, ok := v.(*objects.CIMClassName)
		if !ok {
			return nil, fmt.Errorf("EnumerateClassNames returned %T", v)
		}
		names = append(names, cn.Name)
	}
	return names, nil
}

// EnumerateQualifiers returns all qualifier declarations of the namespace.
func (c *Connection) EnumerateQualifiers(ctx context.Context) ([]*objects.CIMQualifierDeclaration, error) {
	resp, err := c.intrinsic(ctx, "EnumerateQualifiers", nil)
	if err != nil {
		return nil, err
	}
	decls := make([]*objects.CIMQualifierDeclaration, 0, len(resp.ReturnValue))
	for _, v := range resp.ReturnValue {
		qd, ok := v.(*objects.CIMQualifierDeclaration)
		if !ok {
			return nil, fmt.Errorf("EnumerateQualifiers returned %T", v)
		}
		decls = append(decls, qd)
	}
	return decls, nil
}

// GetQualifier retrieves the declaration of the named qualifier.
func (c *Connection) GetQualifier(ctx context.Context, name string) (*objects.CIMQualifierDeclaration, error) {
	resp, err := c.intrinsic(ctx, "GetQualifier", []messages.Param{
		{Name: "QualifierName", Value: name},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.ReturnValue) != 1 {
		return nil, fmt.Errorf("GetQualifier returned %d declarations", len(resp.ReturnValue))
	}
	qd, ok := resp.ReturnValue[0].(*objects.CIMQualifierDeclaration)
	if !ok {
		return nil, fmt.Errorf("GetQualifier returned %T", resp.ReturnValue[0])
	}
	return qd, nil
}

func (c *Connection) instancesOf(vals []interface{}) ([]*objects.CIMInstance, error) {
	instances := make([]*objects.CIMInstance, 0, len(vals))
	for _, v := range vals {
		inst, ok := v.(*objects.CIMInstance)
		if !ok {
			return nil, fmt.Errorf("expected instance in return value, got %T", v)
		}
		if inst.Path != nil {
			c.backfillPath(inst.Path)
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

func (c *Connection) instanceNamesOf(vals []interface{}) ([]*objects.CIMInstanceName, error) {
	names := make([]*objects.CIMInstanceName, 0, len(vals))
	for _, v := range vals {
		in, ok := v.(*objects.CIMInstanceName)
		if !ok {
			return nil, fmt.Errorf("expected instance name in return value, got %T", v)
		}
		c.backfillPath(in)
		names = append(names, in)
	}
	return names, nil
}

func (c *Connection) pathsOf(vals []interface{}) ([]objects.ReferencePath, error) {
	paths := make([]objects.ReferencePath, 0, len(vals))
	for _, v := range vals {
		ref, ok := v.(objects.ReferencePath)
		if !ok {
			return nil, fmt.Errorf("expected object path in return value, got %T", v)
		}
		c.backfillPath(ref)
		paths = append(paths, ref)
	}
	return paths, nil
}

func classesOf(vals []interface{}) ([]*objects.CIMClass, error) {
	classes := make([]*objects.CIMClass, 0, len(vals))
	for _, v := range vals {
		cls, ok := v.(*objects.CIMClass)
		if !ok {
			return nil, fmt.Errorf("expected class in return value, got %T", v)
		}
		classes = append(classes, cls)
	}
	return classes, nil
}
