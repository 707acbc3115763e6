package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/jhump/protoreflect/dynamic"
	"github.com/jhump/protoreflect/dynamic/grpcdynamic"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/forgelang/forge/internal/vm"
)

// InstallRPC registers the `rpc` namespace: rpc.call(address, service,
// method, json_request) dials address, resolves service/method via gRPC
// server reflection (github.com/jhump/protoreflect's grpcreflect and
// dynamic/grpcdynamic), and returns the JSON-encoded response. Forge has no
// static import system (spec's Non-goals), so dynamic dispatch against
// reflection is the only way to call an RPC method without generated stubs.
func InstallRPC(m *vm.Machine) {
	namespace(m, "rpc", map[string]vm.NativeFunc{
		"call": rpcCall,
	})
}

func rpcCall(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 4 {
		return vm.NullValue(), fmt.Errorf("rpc.call() expects (address, service, method, json_request), got %d arguments", len(args))
	}
	address := vm.ToString(m.Heap(), args[0])
	serviceName := vm.ToString(m.Heap(), args[1])
	methodName := vm.ToString(m.Heap(), args[2])
	requestJSON := vm.ToString(m.Heap(), args[3])

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cc, err := grpc.DialContext(ctx, address, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithBlock())
	if err != nil {
		return vm.NullValue(), fmt.Errorf("rpc.call(): dialing %s: %w", address, err)
	}
	defer cc.Close()

	refClient := grpcreflect.NewClientAuto(ctx, cc)
	defer refClient.Reset()

	svcDesc, err := refClient.ResolveService(serviceName)
	if err != nil {
		return vm.NullValue(), fmt.Errorf("rpc.call(): resolving service %s: %w", serviceName, err)
	}
	methodDesc := svcDesc.FindMethodByName(methodName)
	if methodDesc == nil {
		return vm.NullValue(), fmt.Errorf("rpc.call(): service %s has no method %s", serviceName, methodName)
	}

	reqMsg := dynamic.NewMessage(methodDesc.GetInputType())
	if err := reqMsg.UnmarshalJSON([]byte(requestJSON)); err != nil {
		return vm.NullValue(), fmt.Errorf("rpc.call(): request is not valid JSON for %s: %w", methodDesc.GetInputType().GetFullyQualifiedName(), err)
	}

	stub := grpcdynamic.NewStub(cc)
	respMsg, err := stub.InvokeRpc(ctx, methodDesc, reqMsg)
	if err != nil {
		return vm.NullValue(), fmt.Errorf("rpc.call(): invoking %s.%s: %w", serviceName, methodName, err)
	}

	dynResp, ok := respMsg.(*dynamic.Message)
	if !ok {
		dynResp = dynamic.NewMessage(methodDesc.GetOutputType())
		if err := dynResp.ConvertFrom(respMsg); err != nil {
			return vm.NullValue(), fmt.Errorf("rpc.call(): decoding response: %w", err)
		}
	}
	respJSON, err := dynResp.MarshalJSON()
	if err != nil {
		return vm.NullValue(), fmt.Errorf("rpc.call(): encoding response: %w", err)
	}
	return m.Heap().NewString(string(respJSON)), nil
}
